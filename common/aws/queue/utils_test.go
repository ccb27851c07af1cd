package queue

import "testing"

func TestQueueName(t *testing.T) {
	tests := map[string]struct {
		env       string
		queueType Type
		expected  string
	}{
		"dev events":  {env: "dev", queueType: Type_Events, expected: "mediation-dev-events"},
		"prod events": {env: "prod", queueType: Type_Events, expected: "mediation-prod-events"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := queueName(test.env, test.queueType); got != test.expected {
				t.Errorf("found=%s, expected=%s", got, test.expected)
			}
		})
	}
}

func TestAttrInt(t *testing.T) {
	attrs := map[string]string{
		"ApproximateNumberOfMessages":           "12",
		"ApproximateNumberOfMessagesNotVisible": "not a number",
	}
	if v, err := attrInt(attrs, "ApproximateNumberOfMessages"); err != nil || v != 12 {
		t.Errorf("found=%d err=%v, expected=12", v, err)
	}
	if _, err := attrInt(attrs, "ApproximateNumberOfMessagesNotVisible"); err == nil {
		t.Errorf("expected parse error")
	}
	if v, err := attrInt(attrs, "Missing"); err != nil || v != 0 {
		t.Errorf("missing attribute: found=%d err=%v", v, err)
	}
}
