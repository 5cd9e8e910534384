// Package runtime implements the RuntimeOrchestrator: status composition,
// install, start, and repair of the local model runtime (ollama).
package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hearthcore/hearth/internal/config"
	"github.com/hearthcore/hearth/internal/probe"
)

const reachabilityTimeout = 1600 * time.Millisecond

// Status is the composed runtime status the host UI polls.
type Status struct {
	EndpointReachable bool
	EndpointClass     config.EndpointClass
	InstalledModels   int
	BinaryFound       bool
	BinaryPath        string
	Helper            probe.HelperProbe
}

// ModelLister counts installed models by querying the runtime endpoint
// (e.g. GET /api/tags). Injected so tests never make a real HTTP call.
type ModelLister func(ctx context.Context, endpoint string) (int, error)

// Orchestrator composes runtime status and drives install/start/repair.
type Orchestrator struct {
	probe       *probe.Probe
	httpClient  *http.Client
	listModels  ModelLister
	helperPath  string
	binaryNames []string
}

// NewOrchestrator builds an Orchestrator. A nil probe, httpClient, or
// listModels falls back to production defaults.
func NewOrchestrator(p *probe.Probe, httpClient *http.Client, listModels ModelLister, helperPath string) *Orchestrator {
	if p == nil {
		p = probe.New(nil, nil, nil, nil, "")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if listModels == nil {
		listModels = defaultListModels(httpClient)
	}
	return &Orchestrator{
		probe:       p,
		httpClient:  httpClient,
		listModels:  listModels,
		helperPath:  helperPath,
		binaryNames: []string{"ollama"},
	}
}

func defaultListModels(client *http.Client) ModelLister {
	return func(ctx context.Context, endpoint string) (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/api/tags", nil)
		if err != nil {
			return 0, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return 0, nil
		}
		var tags struct {
			Models []json.RawMessage `json:"models"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
			return 0, err
		}
		return len(tags.Models), nil
	}
}

func (o *Orchestrator) checkReachable(ctx context.Context, endpoint string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, reachabilityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Status checks endpoint reachability first, then runs the installed model
// count (only when the endpoint is reachable), the binary probe, and the
// helper probe concurrently via errgroup.
func (o *Orchestrator) Status(ctx context.Context, endpoint string) (Status, error) {
	class := config.ClassifyEndpoint(endpoint)

	reachable := o.checkReachable(ctx, endpoint)

	var modelCount int
	var binary probe.BinaryResolution
	var helper probe.HelperProbe

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if !reachable {
			return nil
		}
		count, err := o.listModels(gctx, endpoint)
		if err == nil {
			modelCount = count
		}
		return nil
	})
	g.Go(func() error {
		binary = o.resolveBinary()
		return nil
	})
	g.Go(func() error {
		helper = o.probe.ProbeHelperStatus(gctx, o.helperPath)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Status{}, err
	}

	return Status{
		EndpointReachable: reachable,
		EndpointClass:     class,
		InstalledModels:   modelCount,
		BinaryFound:       binary.Found,
		BinaryPath:        binary.Path,
		Helper:            helper,
	}, nil
}

func (o *Orchestrator) resolveBinary() probe.BinaryResolution {
	for _, name := range o.binaryNames {
		res := o.probe.ResolveBinary(name)
		if res.Found {
			return res
		}
	}
	return probe.BinaryResolution{Found: false}
}
