package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
)

type mockPublisher struct {
	input *sns.PublishInput
	err   error
}

func (m *mockPublisher) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestTruncate(t *testing.T) {
	short := "Tomato - healthy"
	assert.Equal(t, short, Truncate(short))

	limit := strings.Repeat("a", MaxMessageLength-3)
	assert.Equal(t, limit, Truncate(limit))

	for _, n := range []int{MaxMessageLength - 2, MaxMessageLength} {
		got := Truncate(strings.Repeat("a", n))
		assert.Equal(t, strings.Repeat("a", MaxMessageLength-3)+"...", got, "length %d", n)
	}

	long := strings.Repeat("b", MaxMessageLength+50)
	got := Truncate(long)
	assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	hindi := strings.Repeat("क", MaxMessageLength+1)
	got = Truncate(hindi)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(got))
}

func TestLogSender(t *testing.T) {
	id, err := NewLogSender(nil).Send(context.Background(), Message{Phone: "+919876543210", Body: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSNSSender(t *testing.T) {
	pub := &mockPublisher{}
	s := NewSNSSenderWithClient(pub, nil)

	id, err := s.Send(context.Background(), Message{Phone: "+919876543210", Body: "Spray in the evening."})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
	require.NotNil(t, pub.input)
	assert.Equal(t, "+919876543210", aws.ToString(pub.input.PhoneNumber))
	assert.Equal(t, "Spray in the evening.", aws.ToString(pub.input.Message))
}

func TestSNSSender_Failure(t *testing.T) {
	s := NewSNSSenderWithClient(&mockPublisher{err: errors.New("throttled")}, nil)

	_, err := s.Send(context.Background(), Message{Phone: "+919876543210", Body: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrDelivery)
	assert.Equal(t, 502, apperror.HTTPStatus(err))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********3210", maskPhone("+919876543210"))
	assert.Equal(t, "***", maskPhone("123"))
}
