package ddb

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	mediation "github.com/tradepost/go-mediation"
	"github.com/tradepost/go-mediation/common/aws/config"
	"github.com/tradepost/go-mediation/common/db/dbtest"
	"github.com/tradepost/go-mediation/common/loggers"
	"github.com/tradepost/go-mediation/models"
)

// TestRequestDatabase runs against a local DynamoDB at DB_AWS_ENDPOINT, e.g. http://localhost:8000. Every subtest gets
// its own table.
func TestRequestDatabase(t *testing.T) {
	endpoint := os.Getenv(mediation.Env_DbAwsEndpoint)
	if len(endpoint) == 0 {
		t.Skipf("%s not set", mediation.Env_DbAwsEndpoint)
	}
	region := os.Getenv(mediation.Env_AwsRegion)
	if len(region) == 0 {
		region = "us-east-1"
	}
	awsCfg, err := config.AwsConfig(context.Background(), region, endpoint)
	if err != nil {
		t.Fatalf("aws config: %v", err)
	}
	client := dynamodb.NewFromConfig(awsCfg)

	dbtest.RunRequestRepositoryTests(t, func(t *testing.T) models.RequestRepository {
		env := "test" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		rdb, err := NewRequestDb(context.Background(), loggers.NewTestLogger(), client, env)
		if err != nil {
			t.Fatalf("open request db: %v", err)
		}
		t.Cleanup(func() {
			if _, err := client.DeleteTable(context.Background(), &dynamodb.DeleteTableInput{TableName: aws.String(rdb.requestTable)}); err != nil {
				t.Errorf("delete table %s: %v", rdb.requestTable, err)
			}
		})
		return rdb
	})
}
