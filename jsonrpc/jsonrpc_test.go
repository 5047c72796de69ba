package jsonrpc_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/rpc/v2/json2"
	recall "github.com/recallhq/recall"
	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/internal/mylog"
	"github.com/recallhq/recall/internal/mytesting"
	"github.com/recallhq/recall/jsonrpc"
	"github.com/recallhq/recall/memory"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	ybbus "github.com/ybbus/jsonrpc/v3"
)

type Suite struct {
	mytesting.Suite

	recall  *recall.Recall
	handler http.Handler
}

func (s *Suite) SetupTest() {
	s.Suite.SetupTest()

	logger := mylog.NewLogger("error", "default")

	engineConf := &config.EngineConfig{
		SaveConfidenceThreshold:   0.7,
		SearchConfidenceThreshold: 0.5,
		MinClassifyLength:         15,
		SearchCooldown:            30 * time.Second,
		SimilarityThreshold:       0.3,
		ImportanceBoost:           0.2,
		SearchLimit:               5,
	}

	r, err := recall.NewRecall(
		s.Context,
		recall.WithLogger(logger),
		recall.WithEngineConfig(engineConf),
		recall.WithStoreConfig(&config.StoreConfig{OperationTimeout: 5 * time.Second}),
		recall.WithClassifierConfig(&config.ClassifierConfig{}),
		recall.WithQuotaConfig(&config.QuotaConfig{Tier: "unlimited"}),
		recall.WithStore(memory.NewInMemoryStore()),
		recall.WithEmbedder(memory.NewHashEmbedder(64)),
	)
	s.Require().NoError(err)
	s.recall = r

	s.handler, err = jsonrpc.NewHandlerWithHealth(r, logger)
	s.Require().NoError(err)
}

func (s *Suite) TearDownTest() {
	s.handler = nil
	s.Suite.TearDownTest()
}

func TestJsonRpc(t *testing.T) {
	suite.Run(t, new(Suite))
}

func (s *Suite) TestHealth() {
	server := httptest.NewServer(s.handler)
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal("OK", string(body))
}

func (s *Suite) TestUnknownPath() {
	server := httptest.NewServer(s.handler)
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/nope")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestCreateSearchAndStats() {
	server := httptest.NewServer(s.handler)
	defer server.Close()

	client := jsonrpc.NewClientWithHttpClient(server.URL+"/rpc", server.Client())

	created, err := client.CreateMemory(s, &jsonrpc.CreateMemoryRequest{
		Project:  "proj-a",
		Content:  "cors needs the access control allow origin header",
		Tags:     []string{"cors"},
		Category: memory.CategoryConfig,
	})
	s.Require().NoError(err)
	s.Require().NotNil(created.Record)
	s.NotEmpty(created.Record.Id)
	s.Equal("proj-a", created.Record.Project)

	found, err := client.SearchMemory(s, &jsonrpc.SearchMemoryRequest{
		Project: "proj-a",
		Query:   "cors header origin",
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(found.Results)
	s.Equal(created.Record.Id, found.Results[0].Record.Id)

	stats, err := client.GetStats(s, &jsonrpc.GetStatsRequest{Project: "proj-a"})
	s.Require().NoError(err)
	s.EqualValues(1, stats.TotalRecords)
	s.EqualValues(1, stats.CategoryBreakdown[memory.CategoryConfig])
}

func (s *Suite) TestProcessMessage() {
	server := httptest.NewServer(s.handler)
	defer server.Close()

	client := jsonrpc.NewClientWithHttpClient(server.URL+"/rpc", server.Client())

	resp, err := client.ProcessMessage(s, &jsonrpc.ProcessMessageRequest{
		Project: "proj-a",
		Text:    "Remember that CORS needs Access-Control-Allow-Origin",
		Context: map[string]any{
			"from_code_block": true,
		},
	})
	s.Require().NoError(err)

	s.True(resp.ShouldSave)
	s.Require().NotNil(resp.SavedRecord)
	s.Contains(resp.Triggers, "keyword:remember")
}

func (s *Suite) TestUpdateAndDelete() {
	server := httptest.NewServer(s.handler)
	defer server.Close()

	client := jsonrpc.NewClientWithHttpClient(server.URL+"/rpc", server.Client())

	created, err := client.CreateMemory(s, &jsonrpc.CreateMemoryRequest{
		Project: "proj-a",
		Content: "original content",
	})
	s.Require().NoError(err)

	updated, err := client.UpdateMemory(s, &jsonrpc.UpdateMemoryRequest{
		Id:         created.Record.Id,
		Importance: lo.ToPtr(0.9),
	})
	s.Require().NoError(err)
	s.Equal(0.9, updated.Record.Importance)
	s.Equal("original content", updated.Record.Content)

	deleted, err := client.DeleteMemory(s, &jsonrpc.DeleteMemoryRequest{Id: created.Record.Id})
	s.Require().NoError(err)
	s.Require().NotNil(deleted.Deleted)
	s.True(*deleted.Deleted)

	_, err = client.GetMemory(s, &jsonrpc.GetMemoryRequest{Id: created.Record.Id})
	s.Require().Error(err)
}

func (s *Suite) TestValidationErrorCode() {
	server := httptest.NewServer(s.handler)
	defer server.Close()

	client := jsonrpc.NewClientWithHttpClient(server.URL+"/rpc", server.Client())

	// Validation failures must surface as JSON-RPC error objects with the
	// invalid-params code, not as blank HTTP errors.
	_, err := client.CreateMemory(s, &jsonrpc.CreateMemoryRequest{
		Project: "proj-a",
		Content: "",
	})
	s.Require().Error(err)

	var rpcErr *ybbus.RPCError
	s.Require().ErrorAs(err, &rpcErr)
	s.EqualValues(json2.E_BAD_PARAMS, rpcErr.Code)
	s.NotEmpty(rpcErr.Message)
}

func (s *Suite) TestNotFoundErrorCode() {
	server := httptest.NewServer(s.handler)
	defer server.Close()

	client := jsonrpc.NewClientWithHttpClient(server.URL+"/rpc", server.Client())

	_, err := client.GetMemory(s, &jsonrpc.GetMemoryRequest{Id: "missing"})
	s.Require().Error(err)

	var rpcErr *ybbus.RPCError
	s.Require().ErrorAs(err, &rpcErr)
	s.EqualValues(json2.E_SERVER, rpcErr.Code)
}
