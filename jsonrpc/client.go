package jsonrpc

import (
	"context"
	"net/http"

	"github.com/ybbus/jsonrpc/v3"
)

type (
	// Client is the typed JSON-RPC client for the recall server.
	Client interface {
		ProcessMessage(ctx context.Context, request *ProcessMessageRequest) (*ProcessMessageResponse, error)
		CreateMemory(ctx context.Context, request *CreateMemoryRequest) (*CreateMemoryResponse, error)
		GetMemory(ctx context.Context, request *GetMemoryRequest) (*GetMemoryResponse, error)
		UpdateMemory(ctx context.Context, request *UpdateMemoryRequest) (*UpdateMemoryResponse, error)
		DeleteMemory(ctx context.Context, request *DeleteMemoryRequest) (*DeleteMemoryResponse, error)
		SearchMemory(ctx context.Context, request *SearchMemoryRequest) (*SearchMemoryResponse, error)
		ListMemories(ctx context.Context, request *ListMemoriesRequest) (*ListMemoriesResponse, error)
		GetStats(ctx context.Context, request *GetStatsRequest) (*GetStatsResponse, error)
	}

	client struct {
		rpc jsonrpc.RPCClient
	}
)

var _ Client = (*client)(nil)

func NewClient(url string) Client {
	return NewClientWithHttpClient(url, http.DefaultClient)
}

func NewClientWithHttpClient(url string, httpClient *http.Client) Client {
	rpc := jsonrpc.NewClientWithOpts(url, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	})
	return &client{
		rpc: rpc,
	}
}

func (c *client) ProcessMessage(ctx context.Context, request *ProcessMessageRequest) (*ProcessMessageResponse, error) {
	var response ProcessMessageResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".ProcessMessage", request); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) CreateMemory(ctx context.Context, request *CreateMemoryRequest) (*CreateMemoryResponse, error) {
	var response CreateMemoryResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".CreateMemory", request); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) GetMemory(ctx context.Context, request *GetMemoryRequest) (*GetMemoryResponse, error) {
	var response GetMemoryResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".GetMemory", request); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) UpdateMemory(ctx context.Context, request *UpdateMemoryRequest) (*UpdateMemoryResponse, error) {
	var response UpdateMemoryResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".UpdateMemory", request); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) DeleteMemory(ctx context.Context, request *DeleteMemoryRequest) (*DeleteMemoryResponse, error) {
	var response DeleteMemoryResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".DeleteMemory", request); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) SearchMemory(ctx context.Context, request *SearchMemoryRequest) (*SearchMemoryResponse, error) {
	var response SearchMemoryResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".SearchMemory", request); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) ListMemories(ctx context.Context, request *ListMemoriesRequest) (*ListMemoriesResponse, error) {
	var response ListMemoriesResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".ListMemories", request); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) GetStats(ctx context.Context, request *GetStatsRequest) (*GetStatsResponse, error) {
	var response GetStatsResponse
	if err := c.rpc.CallFor(ctx, &response, servicePrefix+".GetStats", request); err != nil {
		return nil, err
	}
	return &response, nil
}
