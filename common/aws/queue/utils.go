package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/tradepost/go-mediation/models"
)

type Type string

const (
	Type_Events Type = "events"
)

const defaultVisibilityTimeout = 5 * time.Minute
const defaultRetentionPeriod = 4 * 24 * time.Hour

type Opts struct {
	QueueType         Type
	Env               string
	VisibilityTimeout *time.Duration
	RetentionPeriod   *time.Duration
}

// CreateQueue creates the queue if it does not exist yet and returns its URL and name. Creating an existing queue with
// the same attributes is a no-op in SQS.
func CreateQueue(ctx context.Context, sqsClient *sqs.Client, opts Opts) (string, string, error) {
	visibilityTimeout := defaultVisibilityTimeout
	if opts.VisibilityTimeout != nil {
		visibilityTimeout = *opts.VisibilityTimeout
	}
	retentionPeriod := defaultRetentionPeriod
	if opts.RetentionPeriod != nil {
		retentionPeriod = *opts.RetentionPeriod
	}
	name := queueName(opts.Env, opts.QueueType)
	createQueueIn := sqs.CreateQueueInput{
		QueueName: aws.String(name),
		Attributes: map[string]string{
			string(types.QueueAttributeNameVisibilityTimeout):      strconv.Itoa(int(visibilityTimeout.Seconds())),
			string(types.QueueAttributeNameMessageRetentionPeriod): strconv.Itoa(int(retentionPeriod.Seconds())),
		},
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer httpCancel()

	if createQueueOut, err := sqsClient.CreateQueue(httpCtx, &createQueueIn); err != nil {
		return "", "", err
	} else {
		return *createQueueOut.QueueUrl, name, nil
	}
}

func GetQueueUtilization(ctx context.Context, queueUrl string, sqsClient *sqs.Client) (int, int, error) {
	queueAttr, err := getQueueAttributes(ctx, queueUrl, sqsClient)
	if err != nil {
		return 0, 0, err
	}
	numMsgsUnprocessed, err := attrInt(queueAttr, types.QueueAttributeNameApproximateNumberOfMessages)
	if err != nil {
		return 0, 0, err
	}
	numMsgsInFlight, err := attrInt(queueAttr, types.QueueAttributeNameApproximateNumberOfMessagesNotVisible)
	if err != nil {
		return 0, 0, err
	}
	return numMsgsUnprocessed, numMsgsInFlight, nil
}

func attrInt(queueAttr map[string]string, name types.QueueAttributeName) (int, error) {
	if str, found := queueAttr[string(name)]; found {
		return strconv.Atoi(str)
	}
	return 0, nil
}

func getQueueAttributes(ctx context.Context, queueUrl string, sqsClient *sqs.Client) (map[string]string, error) {
	getQueueAttrIn := sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(queueUrl),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
			types.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
		},
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer httpCancel()

	if getQueueAttrOut, err := sqsClient.GetQueueAttributes(httpCtx, &getQueueAttrIn); err != nil {
		return nil, err
	} else {
		return getQueueAttrOut.Attributes, nil
	}
}

func queueName(env string, queueType Type) string {
	return fmt.Sprintf("mediation-%s-%s", env, string(queueType))
}
