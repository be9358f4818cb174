package llm

import (
	"context"

	copilot "github.com/github/copilot-sdk/go"
)

//go:generate go tool mockgen -source copilot_sdk.go -destination copilot_sdk_mocks_test.go -package llm

// sessionAPI is the part of [*copilot.Session] a completion needs.
type sessionAPI interface {
	On(handler copilot.SessionEventHandler) func()
	SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error)
}

// clientAPI is the part of [*copilot.Client] the Copilot backend drives.
// CreateSession returns the narrowed session so both can be mocked.
type clientAPI interface {
	Start(ctx context.Context) error
	CreateSession(ctx context.Context, config *copilot.SessionConfig) (sessionAPI, error)
	Stop() error
}

type sdkClient struct {
	*copilot.Client
}

func newSDKClient(clientOptions *copilot.ClientOptions) clientAPI {
	return sdkClient{Client: copilot.NewClient(clientOptions)}
}

func (c sdkClient) CreateSession(ctx context.Context, config *copilot.SessionConfig) (sessionAPI, error) {
	sess, err := c.Client.CreateSession(ctx, config)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
