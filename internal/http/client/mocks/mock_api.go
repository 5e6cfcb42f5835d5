package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dockeeper/internal/http/client"
	"dockeeper/internal/model"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Register(ctx context.Context, req client.RegisterRequest) (*client.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.MessageResponse), args.Error(1)
}

func (m *MockAPI) Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.LoginResponse), args.Error(1)
}

func (m *MockAPI) ListDocuments(ctx context.Context, token string, category model.Category) ([]model.Document, error) {
	args := m.Called(ctx, token, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockAPI) UploadDocument(ctx context.Context, token string, up client.Upload) (*model.Document, error) {
	args := m.Called(ctx, token, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockAPI) DeleteDocument(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockAPI) FileURL(filePath string) string {
	return "http://docs.test/" + filePath
}
