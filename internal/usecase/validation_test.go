package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fsrviagens/leads-api/internal/entity"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "61983163710", usecase.NormalizePhone("(61) 98316-3710"))
	assert.Equal(t, "61983163710", usecase.NormalizePhone("61 98316-3710"))
	assert.Equal(t, "5561983163710", usecase.NormalizePhone("+55 61 9.8316.3710"))
	assert.Equal(t, "", usecase.NormalizePhone("sem telefone"))
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	for _, phone := range []string{"61983163710", "(61) 98316-3710", "0800 123 4567", ""} {
		once := usecase.NormalizePhone(phone)
		assert.Equal(t, once, usecase.NormalizePhone(once), phone)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, usecase.IsValidEmail("ana@example.com"))
	assert.True(t, usecase.IsValidEmail("ana.silva+viagens@fsr.tur.br"))
	assert.False(t, usecase.IsValidEmail(""))
	assert.False(t, usecase.IsValidEmail("ana.example.com"))
	assert.False(t, usecase.IsValidEmail("ana@exa mple.com"))
}

func TestListLeadsClampsLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, usecase.DefaultListLimit},
		{-3, usecase.DefaultListLimit},
		{10, 10},
		{1000, usecase.MaxListLimit},
	}

	for _, tc := range cases {
		repo := new(MockLeadRepository)
		repo.On("ListRecent", mock.Anything, tc.want).Return([]*entity.Lead{}, nil)

		uc := usecase.NewListLeadsUseCase(repo)
		_, err := uc.Execute(context.Background(), usecase.ListLeadsInput{Limit: tc.in})

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	}
}

func TestListLeadsStorageError(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("ListRecent", mock.Anything, usecase.DefaultListLimit).Return(nil, errors.New("connection reset"))

	uc := usecase.NewListLeadsUseCase(repo)
	leads, err := uc.Execute(context.Background(), usecase.ListLeadsInput{})

	assert.Nil(t, leads)
	assert.True(t, usecase.IsTechnicalError(err))
	assert.False(t, usecase.IsDomainError(err))
}
