package service

import (
	"fmt"
	"log"
	"time"

	"parkeo/internal/db"
)

// Notifier informs a user about the outcome of their reservation. Both calls
// are fire-and-forget from the engine's perspective; implementations must not
// block the allocation path on delivery.
type Notifier interface {
	NotifyApproved(email, phone, slotNumber string, vehicle *db.Vehicle, location db.ParkingLocation, expiration time.Time) error
	NotifyRejected(email, phone string, vehicle *db.Vehicle, reason string) error
}

// EmailNotifier sends reservation outcomes via SendGrid, with a companion SMS
// through Twilio when the user has a phone on file. Sends happen on their own
// goroutine; failures are logged, never returned to the caller.
type EmailNotifier struct{}

func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{}
}

func (n *EmailNotifier) NotifyApproved(email, phone, slotNumber string, vehicle *db.Vehicle, location db.ParkingLocation, expiration time.Time) error {
	subject := fmt.Sprintf("Your parking reservation is approved - Slot %s", slotNumber)
	body := fmt.Sprintf(
		"Hello,\n\nYour parking reservation has been approved.\n\n"+
			"Slot: %s\n"+
			"Zone: %s\n"+
			"Vehicle: %s (Plate: %s)\n"+
			"Valid until: %s\n\n"+
			"Please park only in your assigned slot.\n",
		slotNumber, location, vehicle.Model, vehicle.PlateNumber,
		expiration.UTC().Format("02 Jan 2006 15:04 MST"),
	)
	sms := fmt.Sprintf("Parking approved: slot %s, zone %s. Valid until %s.",
		slotNumber, location, expiration.UTC().Format("02/01 15:04"))

	n.dispatch(email, phone, subject, body, sms)
	return nil
}

func (n *EmailNotifier) NotifyRejected(email, phone string, vehicle *db.Vehicle, reason string) error {
	subject := "Your parking reservation was rejected"
	body := fmt.Sprintf(
		"Hello,\n\nYour parking reservation for vehicle %s (Plate: %s) was rejected.\n\n"+
			"Reason: %s\n",
		vehicle.Model, vehicle.PlateNumber, reason,
	)
	sms := fmt.Sprintf("Parking reservation for plate %s rejected: %s", vehicle.PlateNumber, reason)

	n.dispatch(email, phone, subject, body, sms)
	return nil
}

func (n *EmailNotifier) dispatch(email, phone, subject, body, sms string) {
	go func() {
		if err := SendEmailWithSendGrid(email, subject, body); err != nil {
			log.Printf("failed to send notification email to %s: %v", email, err)
		}
		if phone == "" {
			return
		}
		if err := SendSMS(phone, sms); err != nil {
			log.Printf("failed to send notification SMS to %s: %v", phone, err)
		}
	}()
}
