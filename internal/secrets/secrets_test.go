package secrets

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	key, err := Static("sk-test").APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	_, err = Static("").APIKey(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnv(t *testing.T) {
	t.Setenv("CHALLENGES_TEST_KEY", "  sk-env  ")
	key, err := Env("CHALLENGES_TEST_KEY").APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)

	t.Setenv("CHALLENGES_TEST_KEY", "")
	_, err = Env("CHALLENGES_TEST_KEY").APIKey(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCached_SingleUpstreamCallOnSuccess(t *testing.T) {
	var calls atomic.Int32
	c := NewCached(ProviderFunc(func(context.Context) (string, error) {
		calls.Add(1)
		return "sk-1", nil
	}))

	for range 5 {
		key, err := c.APIKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "sk-1", key)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCached_FailureIsRetried(t *testing.T) {
	var calls atomic.Int32
	c := NewCached(ProviderFunc(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("throttled")
		}
		return "sk-2", nil
	}))

	_, err := c.APIKey(context.Background())
	require.Error(t, err)

	key, err := c.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-2", key)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCached_ConcurrentFirstCallsCollapse(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewCached(ProviderFunc(func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "sk-3", nil
	}))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := c.APIKey(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "sk-3", key)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCached_WaiterHonoursOwnDeadline(t *testing.T) {
	release := make(chan struct{})
	c := NewCached(ProviderFunc(func(context.Context) (string, error) {
		<-release
		return "sk-4", nil
	}))

	first := make(chan string, 1)
	go func() {
		key, _ := c.APIKey(context.Background())
		first <- key
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.APIKey(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.Equal(t, "sk-4", <-first)

	key, err := c.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-4", key)
}

type fakeSecretsManager struct {
	value *string
	err   error
	input *secretsmanager.GetSecretValueInput
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestSecretsManager(t *testing.T) {
	tests := []struct {
		name    string
		value   *string
		jsonKey string
		err     error
		want    string
		wantErr bool
	}{
		{name: "raw string", value: aws.String("sk-raw\n"), want: "sk-raw"},
		{name: "json field", value: aws.String(`{"OPENROUTER_API_KEY":"sk-json"}`), jsonKey: "OPENROUTER_API_KEY", want: "sk-json"},
		{name: "json field missing", value: aws.String(`{"other":"x"}`), jsonKey: "OPENROUTER_API_KEY", wantErr: true},
		{name: "not json", value: aws.String("sk-raw"), jsonKey: "OPENROUTER_API_KEY", wantErr: true},
		{name: "empty secret", value: nil, wantErr: true},
		{name: "api error", err: errors.New("AccessDenied"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeSecretsManager{value: tt.value, err: tt.err}
			sm := &SecretsManager{Client: fake, SecretID: "arn:aws:secretsmanager:us-east-1:123:secret:openrouter", JSONKey: tt.jsonKey}

			got, err := sm.APIKey(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "arn:aws:secretsmanager:us-east-1:123:secret:openrouter", aws.ToString(fake.input.SecretId))
		})
	}
}

func TestSecretsManager_NoSecretID(t *testing.T) {
	sm := &SecretsManager{Client: &fakeSecretsManager{}}
	_, err := sm.APIKey(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
