package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/repository"
)

type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

type ContactService struct {
	messages repository.ContactMessageRepository
}

func NewContactService(messages repository.ContactMessageRepository) *ContactService {
	return &ContactService{messages: messages}
}

func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*domain.ContactMessage, error) {
	name := strings.TrimSpace(in.Name)
	message := strings.TrimSpace(in.Message)
	if name == "" || message == "" {
		return nil, fmt.Errorf("%w: name and message are required", ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email != "" && !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	msg := &domain.ContactMessage{
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: message,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return msg, nil
}

func (s *ContactService) List(ctx context.Context, status string, limit, offset int) ([]domain.ContactMessage, int64, error) {
	if status != "" {
		switch status {
		case domain.ContactStatusNew, domain.ContactStatusRead, domain.ContactStatusArchived:
		default:
			return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
	}
	return s.messages.List(ctx, status, limit, offset)
}

func (s *ContactService) UpdateStatus(ctx context.Context, id, status string) (*domain.ContactMessage, error) {
	switch status {
	case domain.ContactStatusNew, domain.ContactStatusRead, domain.ContactStatusArchived:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	msg, err := s.messages.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Status = status
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("update contact message: %w", err)
	}
	return msg, nil
}
