package report

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/safety"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoReport is the table shape. expires_epoch doubles as the table's
// native TTL attribute, so DynamoDB reaps expired reports on its own;
// DeleteExpired exists for immediate, auditable purges.
type dynamoReport struct {
	ReportID         string   `dynamodbav:"report_id"`
	AnonymizedUserID string   `dynamodbav:"anonymized_user_id"`
	StoreID          string   `dynamodbav:"store_id"`
	Category         string   `dynamodbav:"category"`
	Severity         string   `dynamodbav:"severity"`
	Priority         string   `dynamodbav:"priority"`
	Recipients       []string `dynamodbav:"recipients,omitempty"`
	Ciphertext       string   `dynamodbav:"ciphertext"`
	KeyVersion       string   `dynamodbav:"key_version"`
	OccurrenceCount  int      `dynamodbav:"occurrence_count"`
	CreatedAt        int64    `dynamodbav:"created_epoch"`
	ExpiresAt        int64    `dynamodbav:"expires_epoch"`
}

// DynamoStore persists reports in a DynamoDB table keyed by report_id.
type DynamoStore struct {
	api   dynamoAPI
	table string
}

// NewDynamoStore creates a DynamoDB-backed store.
func NewDynamoStore(api dynamoAPI, table string) *DynamoStore {
	if api == nil {
		panic("report: dynamo store requires a client")
	}
	if table == "" {
		panic("report: dynamo store requires a table name")
	}
	return &DynamoStore{api: api, table: table}
}

func (s *DynamoStore) Save(ctx context.Context, rep *IncidentReport) error {
	item, err := attributevalue.MarshalMap(toDynamoReport(rep))
	if err != nil {
		return fmt.Errorf("report: marshal report: %w", err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("report: put report: %w", err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, reportID string) (*IncidentReport, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"report_id": &ddbtypes.AttributeValueMemberS{Value: reportID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("report: get report: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var item dynamoReport
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("report: unmarshal report: %w", err)
	}
	return fromDynamoReport(item), nil
}

func (s *DynamoStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	deleted := 0
	var startKey map[string]ddbtypes.AttributeValue
	for {
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(s.table),
			ProjectionExpression: aws.String("report_id"),
			FilterExpression:     aws.String("expires_epoch < :now"),
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":now": &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return deleted, fmt.Errorf("report: scan expired: %w", err)
		}

		for _, item := range out.Items {
			_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.table),
				Key:       map[string]ddbtypes.AttributeValue{"report_id": item["report_id"]},
			})
			if err != nil {
				return deleted, fmt.Errorf("report: delete expired: %w", err)
			}
			deleted++
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return deleted, nil
}

func toDynamoReport(rep *IncidentReport) dynamoReport {
	return dynamoReport{
		ReportID:         rep.ReportID,
		AnonymizedUserID: rep.AnonymizedUserID,
		StoreID:          rep.StoreID,
		Category:         string(rep.Category),
		Severity:         string(rep.Severity),
		Priority:         string(rep.Priority),
		Recipients:       recipientStrings(rep.Recipients),
		Ciphertext:       rep.Ciphertext,
		KeyVersion:       rep.KeyVersion,
		OccurrenceCount:  rep.OccurrenceCount,
		CreatedAt:        rep.CreatedAt.Unix(),
		ExpiresAt:        rep.ExpiresAt.Unix(),
	}
}

func fromDynamoReport(item dynamoReport) *IncidentReport {
	return &IncidentReport{
		ReportID:         item.ReportID,
		AnonymizedUserID: item.AnonymizedUserID,
		StoreID:          item.StoreID,
		Category:         safety.Category(item.Category),
		Severity:         safety.Severity(item.Severity),
		Priority:         policy.EscalationPriority(item.Priority),
		Recipients:       recipientRoles(item.Recipients),
		Ciphertext:       item.Ciphertext,
		KeyVersion:       item.KeyVersion,
		OccurrenceCount:  item.OccurrenceCount,
		CreatedAt:        time.Unix(item.CreatedAt, 0).UTC(),
		ExpiresAt:        time.Unix(item.ExpiresAt, 0).UTC(),
	}
}

var _ Store = (*DynamoStore)(nil)
