package services

import (
	"context"
	"strings"

	"github.com/nexamart/nexamart-backend-go/models"
)

type ContactService struct {
	contacts ContactStore
}

func NewContactService(contacts ContactStore) *ContactService {
	return &ContactService{contacts: contacts}
}

func (s *ContactService) Submit(ctx context.Context, name, email, subject, message string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = models.DefaultContactSubject
	}
	return s.contacts.Create(ctx, &models.Contact{
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Subject: subject,
		Message: strings.TrimSpace(message),
	})
}
