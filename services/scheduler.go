// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"tournament-arena-system/models"
)

// StartStatusScheduler moves tournaments along their lifecycle on a timer:
// upcoming → ongoing once start_time passes, ongoing → completed once
// end_time passes. Backward moves never happen here or anywhere else.
func (s *TournamentService) StartStatusScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			var starting []models.Tournament
			err := s.DB.Where("status = ? AND start_time <= ?", models.TournamentUpcoming, now).
				Find(&starting).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, t := range starting {
				if err := s.DB.Model(&t).Update("status", models.TournamentOngoing).Error; err != nil {
					log.Printf("[Scheduler] Failed to start tournament %s: %v", t.ID, err)
				} else {
					log.Printf("✅ Tournament now ongoing: %s", t.Name)
				}
			}

			var ending []models.Tournament
			err = s.DB.Where("status = ? AND end_time <= ?", models.TournamentOngoing, now).
				Find(&ending).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, t := range ending {
				if t.EndTime.IsZero() {
					// open-ended tournament, completed manually
					continue
				}
				if err := s.DB.Model(&t).Update("status", models.TournamentCompleted).Error; err != nil {
					log.Printf("[Scheduler] Failed to complete tournament %s: %v", t.ID, err)
				} else {
					log.Printf("✅ Tournament completed: %s", t.Name)
				}
			}
		}),
	)
}
