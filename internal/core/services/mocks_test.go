package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// MockDirectory is a mock implementation of driven.Directory.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) SearchByName(ctx context.Context, surname, given string) (*domain.Contact, error) {
	args := m.Called(ctx, surname, given)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockDirectory) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockDirectory) CreateUser(ctx context.Context, user domain.NewUser) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

// MockMailer is a mock implementation of driven.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg driven.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockArchive is a mock implementation of driven.Archive.
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, name, contentType, data)
	return args.String(0), args.Error(1)
}

// MockRecordSource is a mock implementation of driven.RecordSource.
type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) Extract(ctx context.Context, query string, limit int) (domain.RecordSet, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).(domain.RecordSet), args.Error(1)
}

// stubWorkbook records what it was asked to build.
type stubWorkbook struct {
	sheet   string
	columns []domain.AttachmentColumn
	rows    []domain.Record
	err     error
}

func (b *stubWorkbook) Build(sheet string, columns []domain.AttachmentColumn, rows []domain.Record) ([]byte, error) {
	b.sheet, b.columns, b.rows = sheet, columns, rows
	if b.err != nil {
		return nil, b.err
	}
	return []byte("xlsx"), nil
}
