// Package dynamo implements the challenge gateway on Amazon DynamoDB.
//
// Items live in one table keyed by pk (theme/level partition) and sk
// (creation time + id). The expiryTime attribute is the table's TTL
// attribute; DynamoDB deletes expired items lazily, so reads filter them too.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/persenaut/challenges/internal/challenge"
)

// Attribute names used in expressions.
const (
	attrPK     = "pk"
	attrExpiry = "expiryTime"
)

// item is the table representation of a stored question. CreatedAt is epoch
// milliseconds; ExpiryTime is epoch seconds, the unit DynamoDB TTL expects.
type item struct {
	PK          string `dynamodbav:"pk"`
	SK          string `dynamodbav:"sk"`
	ID          string `dynamodbav:"id"`
	Theme       string `dynamodbav:"themeAttr"`
	Level       string `dynamodbav:"levelAttr"`
	Challenge   string `dynamodbav:"challenge"`
	Prompt      string `dynamodbav:"prompt"`
	CreatedAt   int64  `dynamodbav:"createdAt"`
	ExpiryTime  int64  `dynamodbav:"expiryTime"`
	SourceModel string `dynamodbav:"sourceModel"`
}

// ErrDuplicate is returned when an item with the same key already exists.
var ErrDuplicate = errors.New("challenge already exists")

// API is the subset of the DynamoDB client used by Gateway.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Gateway stores challenges in a DynamoDB table.
type Gateway struct {
	client    API
	table     string
	now       func() time.Time
	retention time.Duration
}

var _ challenge.Gateway = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithRetention sets the item lifetime.
func WithRetention(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.retention = d
		}
	}
}

// New returns a Gateway on table using client.
func New(client API, table string, opts ...Option) *Gateway {
	g := &Gateway{
		client:    client,
		table:     table,
		now:       time.Now,
		retention: challenge.DefaultRetention,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewClient builds a DynamoDB client from the default AWS credential
// chain. endpoint overrides the service URL (DynamoDB Local).
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Save writes q as a new item. The put is conditional on the key being
// unused, so an existing item is never replaced.
func (g *Gateway) Save(ctx context.Context, q challenge.GeneratedQuestion, theme, level string) (*challenge.StoredQuestion, error) {
	rec, err := challenge.NewStoredQuestion(q, theme, level, g.now(), g.retention)
	if err != nil {
		return nil, err
	}

	av, err := marshalItem(rec)
	if err != nil {
		return nil, err
	}
	_, err = g.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(g.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("save challenge %s: %w", rec.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("save challenge %s: %w", rec.ID, err)
	}
	return rec, nil
}

// FetchRecent queries the pair's partition newest first and drops items
// whose TTL has passed but which DynamoDB has not deleted yet.
func (g *Gateway) FetchRecent(ctx context.Context, theme, level string, limit int) ([]challenge.StoredQuestion, error) {
	if limit <= 0 {
		return nil, nil
	}

	values, err := attributevalue.MarshalMap(map[string]any{
		":pk":  challenge.PartitionKey(theme, level),
		":now": g.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode query values: %w", err)
	}
	input := &dynamodb.QueryInput{
		TableName:              aws.String(g.table),
		KeyConditionExpression: aws.String("#pk = :pk"),
		FilterExpression:       aws.String("#exp > :now"),
		ExpressionAttributeNames: map[string]string{
			"#pk":  attrPK,
			"#exp": attrExpiry,
		},
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	}

	// Limit applies before the filter, so page until enough live items
	// are collected or the partition ends.
	var out []challenge.StoredQuestion
	for {
		resp, err := g.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query challenges: %w", err)
		}
		for _, av := range resp.Items {
			rec, err := unmarshalItem(av)
			if err != nil {
				return nil, err
			}
			out = append(out, *rec)
			if len(out) == limit {
				return out, nil
			}
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

func marshalItem(rec *challenge.StoredQuestion) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item{
		PK:          rec.PartitionKey,
		SK:          rec.SortKey,
		ID:          rec.ID,
		Theme:       rec.Theme,
		Level:       rec.Level,
		Challenge:   rec.Text,
		Prompt:      rec.Prompt,
		CreatedAt:   rec.CreatedAt.UnixMilli(),
		ExpiryTime:  rec.Expiry.Unix(),
		SourceModel: rec.SourceModel,
	})
	if err != nil {
		return nil, fmt.Errorf("encode challenge %s: %w", rec.ID, err)
	}
	return av, nil
}

func unmarshalItem(av map[string]types.AttributeValue) (*challenge.StoredQuestion, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, fmt.Errorf("decode challenge item: %w", err)
	}
	if it.CreatedAt == 0 || it.ExpiryTime == 0 {
		return nil, fmt.Errorf("decode challenge item %q: missing timestamps", it.ID)
	}
	return &challenge.StoredQuestion{
		ID:           it.ID,
		PartitionKey: it.PK,
		SortKey:      it.SK,
		Theme:        it.Theme,
		Level:        it.Level,
		Text:         it.Challenge,
		Prompt:       it.Prompt,
		CreatedAt:    time.UnixMilli(it.CreatedAt).UTC(),
		Expiry:       time.Unix(it.ExpiryTime, 0).UTC(),
		SourceModel:  it.SourceModel,
	}, nil
}
