package subgraph

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func eventsServer(t *testing.T, total int, skips *[]int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decode request: %s", err)
			return
		}

		skip := int(request.Variables["skip"].(float64))
		first := int(request.Variables["first"].(float64))
		*skips = append(*skips, skip)

		count := 0
		if skip < total {
			count = total - skip
			if count > first {
				count = first
			}
		}

		items := make([]string, count)
		for i := 0; i < count; i++ {
			items[i] = fmt.Sprintf(
				`{"eventName":"MarketplaceBidEvent","blockNumber":"100","logIndex":"%d","transactionHash":"0xtx","timestamp":"1000","removed":false,"args":[]}`,
				skip+i,
			)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"marketplaceEvents":[%s]}}`, strings.Join(items, ","))
	}))
}

func TestGetEventsPaginatesFullWindows(t *testing.T) {
	skips := make([]int, 0)
	server := eventsServer(t, 2500, &skips)
	defer server.Close()

	service, err := NewSubgraphService(server.URL, 5)
	if err != nil {
		t.Fatalf("NewSubgraphService: %s", err)
	}

	logs, err := service.GetEvents("0xMarketplace", 1, 1, 500)
	if err != nil {
		t.Fatalf("GetEvents: %s", err)
	}

	if len(logs) != 2500 {
		t.Errorf("got %d logs, want 2500", len(logs))
	}

	want := []int{0, 1000, 2000}
	if len(skips) != len(want) {
		t.Fatalf("got %d pages, want %d", len(skips), len(want))
	}
	for i, skip := range want {
		if skips[i] != skip {
			t.Errorf("page %d skip = %d, want %d", i, skips[i], skip)
		}
	}

	if logs[1200].LogIndex != 1200 {
		t.Errorf("logIndex at 1200 = %d, pages out of order", logs[1200].LogIndex)
	}
	if logs[0].ContractAddr != "0xmarketplace" {
		t.Errorf("contractAddr = %s, want lowercase", logs[0].ContractAddr)
	}
}

func TestGetEventsShortPageStops(t *testing.T) {
	skips := make([]int, 0)
	server := eventsServer(t, 3, &skips)
	defer server.Close()

	service, err := NewSubgraphService(server.URL, 5)
	if err != nil {
		t.Fatalf("NewSubgraphService: %s", err)
	}

	logs, err := service.GetEvents("0xmarketplace", 1, 1, 500)
	if err != nil {
		t.Fatalf("GetEvents: %s", err)
	}

	if len(logs) != 3 {
		t.Errorf("got %d logs, want 3", len(logs))
	}
	if len(skips) != 1 {
		t.Errorf("got %d pages, want 1", len(skips))
	}
}

func TestGetEventsExactPageBoundary(t *testing.T) {
	skips := make([]int, 0)
	server := eventsServer(t, 1000, &skips)
	defer server.Close()

	service, err := NewSubgraphService(server.URL, 5)
	if err != nil {
		t.Fatalf("NewSubgraphService: %s", err)
	}

	logs, err := service.GetEvents("0xmarketplace", 1, 1, 500)
	if err != nil {
		t.Fatalf("GetEvents: %s", err)
	}

	if len(logs) != 1000 {
		t.Errorf("got %d logs, want 1000", len(logs))
	}
	if len(skips) != 2 {
		t.Errorf("got %d pages, want 2 (full page forces one more fetch)", len(skips))
	}
}
