package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

type fakeDynamo struct {
	putCalls   int
	putFail    int // fail this many PutItem calls before succeeding
	lastTable  string
	queryItems []map[string]types.AttributeValue
	queryErr   error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putCalls++
	f.lastTable = *in.TableName
	if f.putCalls <= f.putFail {
		return nil, errors.New("throttled")
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &dynamodb.QueryOutput{Items: f.queryItems}, nil
}

func sampleReport() *models.SynthesisReport {
	return &models.SynthesisReport{
		ReportID:    "r-123",
		CompanyName: "Acme",
		Metadata: models.ReportMetadata{
			AnalyzedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestSaveReport(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewStore(fake)

	err := store.SaveReport(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, REPORTS_TABLE_NAME, fake.lastTable)
	assert.Equal(t, 1, fake.putCalls)
}

func TestSaveReport_RetriesThenSucceeds(t *testing.T) {
	fake := &fakeDynamo{putFail: 2}
	store := NewStore(fake)

	err := store.SaveReport(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, 3, fake.putCalls)
}

func TestSaveReport_ExhaustsRetries(t *testing.T) {
	fake := &fakeDynamo{putFail: 10}
	store := NewStore(fake)

	err := store.SaveReport(context.Background(), sampleReport())

	require.Error(t, err)
	assert.Equal(t, putRetries, fake.putCalls)
}

func TestGetLatestSnapshot_None(t *testing.T) {
	store := NewStore(&fakeDynamo{})

	snapshot, err := store.GetLatestSnapshot(context.Background(), "Acme")

	require.NoError(t, err)
	assert.Nil(t, snapshot, "first run has no snapshot")
}

func TestGetLatestSnapshot_Found(t *testing.T) {
	want := models.Snapshot{
		CompanyName: "Acme",
		ReportID:    "r-122",
		FocusAreas: []models.SnapshotArea{
			{Title: "Checkout crashes", Category: models.CategoryBug, Frequency: 5, ImpactScore: 6.5},
		},
	}
	item, err := attributevalue.MarshalMap(want)
	require.NoError(t, err)

	store := NewStore(&fakeDynamo{queryItems: []map[string]types.AttributeValue{item}})

	got, err := store.GetLatestSnapshot(context.Background(), "Acme")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r-122", got.ReportID)
	require.Len(t, got.FocusAreas, 1)
	assert.Equal(t, models.CategoryBug, got.FocusAreas[0].Category)
}
