package platform

import (
	"strings"

	"github.com/ecopower/backend/internal/domain/shared"
)

// ContactRequest is a message submitted through the public contact form
type ContactRequest struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// NewContactRequest validates and normalizes a contact form submission
func NewContactRequest(name, email, phone, subject, message string) (*ContactRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "A valid email is required")
	}
	if phone != "" {
		digits := 0
		for _, r := range phone {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 8 {
			return nil, shared.NewDomainError("INVALID_PHONE", "Phone must contain at least 8 digits")
		}
	}
	message = strings.TrimSpace(message)
	if len(message) < 10 {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message must be at least 10 characters")
	}

	return &ContactRequest{
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(phone),
		Subject: strings.TrimSpace(subject),
		Message: message,
	}, nil
}
