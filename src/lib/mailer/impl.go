package mailer

import (
	"esm/src/lib"
	"log"
	"os"
)

func NewMailerMessage(input *lib.SendMailInput) error {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "test" {
		log.Printf("[mailer] test mode, skipping delivery to %v\n", input.To)
		return nil
	}
	if err := lib.SendMail(input); err != nil {
		return err
	}
	return nil
}
