package queue

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// DefaultDispatchTopic carries campaign runs to be executed.
const DefaultDispatchTopic = "campaign_dispatch"

// DispatchJob asks a worker to execute one pending campaign.
type DispatchJob struct {
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`
}

// StartDispatchSubscriber wires run to topic. Malformed jobs are dropped.
func StartDispatchSubscriber(q Queue, topic string, run func(ctx context.Context, job DispatchJob) error) error {
	return q.Subscribe(topic, func(body []byte) error {
		var job DispatchJob
		if err := json.Unmarshal(body, &job); err != nil || job.CampaignID == "" || job.UserID == "" {
			logrus.WithField("body", string(body)).Warn("Invalid dispatch job, dropping")
			return nil
		}

		log := logrus.WithFields(logrus.Fields{"campaign_id": job.CampaignID, "user_id": job.UserID})
		log.Info("Processing queued campaign")

		if err := run(context.Background(), job); err != nil {
			log.WithError(err).Error("Queued campaign failed")
			return err
		}
		return nil
	})
}
