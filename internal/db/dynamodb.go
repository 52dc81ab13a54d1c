// Package db persists synthesis reports and the minimal snapshots future
// runs compare against. The contract is narrow: write once per completed
// run, read the most recent prior snapshot.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

const (
	REPORTS_TABLE_NAME   = "SynthesisReports"
	SNAPSHOTS_TABLE_NAME = "Snapshots"

	putRetries = 3
)

// DynamoDBAPI is the slice of the SDK client the store uses; tests hand in
// a fake.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type Store struct {
	client DynamoDBAPI
}

func NewStore(client DynamoDBAPI) *Store {
	return &Store{client: client}
}

// SaveReport writes a completed report. Reports are immutable once written;
// failures retry with doubling backoff before surfacing.
func (s *Store) SaveReport(ctx context.Context, report *models.SynthesisReport) error {
	item, err := attributevalue.MarshalMap(report)
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to marshal report: %w", err)
	}
	// range-key friendly sort attribute
	item["analyzed_at"] = &types.AttributeValueMemberN{
		Value: fmt.Sprintf("%d", report.Metadata.AnalyzedAt.Unix()),
	}

	if err := s.putWithRetry(ctx, REPORTS_TABLE_NAME, item); err != nil {
		return err
	}

	slog.Info("[DynamoDB] Successfully stored synthesis report",
		slog.String("report_id", report.ReportID),
		slog.String("company", report.CompanyName))
	return nil
}

// SaveSnapshot writes the minimal projection the next run's comparer reads.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	item, err := attributevalue.MarshalMap(snapshot)
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to marshal snapshot: %w", err)
	}
	item["analyzed_at"] = &types.AttributeValueMemberN{
		Value: fmt.Sprintf("%d", snapshot.AnalyzedAt.Unix()),
	}

	if err := s.putWithRetry(ctx, SNAPSHOTS_TABLE_NAME, item); err != nil {
		return err
	}

	slog.Info("[DynamoDB] Successfully stored snapshot",
		slog.String("company", snapshot.CompanyName))
	return nil
}

// GetLatestSnapshot returns the most recent prior snapshot for a company,
// or nil when this is the company's first run.
func (s *Store) GetLatestSnapshot(ctx context.Context, company string) (*models.Snapshot, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(SNAPSHOTS_TABLE_NAME),
		KeyConditionExpression: aws.String("company_name = :company"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":company": &types.AttributeValueMemberS{Value: company},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] Snapshot query failed: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var snapshot models.Snapshot
	if err := attributevalue.UnmarshalMap(out.Items[0], &snapshot); err != nil {
		return nil, fmt.Errorf("[DynamoDB] Unable to unmarshal snapshot: %w", err)
	}

	slog.Info("[DynamoDB] Found prior snapshot",
		slog.String("company", company),
		slog.String("report_id", snapshot.ReportID))
	return &snapshot, nil
}

func (s *Store) putWithRetry(ctx context.Context, table string, item map[string]types.AttributeValue) error {
	backoff := 500 * time.Millisecond
	var err error

	for attempt := 1; attempt <= putRetries; attempt++ {
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(table),
			Item:      item,
		})
		if err == nil {
			return nil
		}

		slog.Warn("[DynamoDB] PutItem failed, retrying...",
			slog.String("table", table),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt < putRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("[DynamoDB] Failed to write to %s after %d attempts: %w", table, putRetries, err)
}
