package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RTTRecorder writes one CSV row per completed exchange, one file per agent.
type RTTRecorder struct {
	agentName string
	file      *os.File

	mu      sync.Mutex
	pending map[string]pendingExchange
}

type pendingExchange struct {
	startedAt    time.Time
	performative string
	receiver     string
}

func NewRTTRecorder(dir, agentName string) (*RTTRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create rtt log dir: %w", err)
	}
	name := fmt.Sprintf("rtt_%s_%s.csv", agentName, time.Now().Format("20060102_15-04-05"))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create rtt log: %w", err)
	}
	if _, err := fmt.Fprintln(file, "Timestamp,Sender,Receiver,ConversationID,Performative,RTT_ms,Success,Outcome"); err != nil {
		file.Close()
		return nil, err
	}
	return &RTTRecorder{
		agentName: agentName,
		file:      file,
		pending:   make(map[string]pendingExchange),
	}, nil
}

func (r *RTTRecorder) Start(correlationID, performative, receiver string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[correlationID] = pendingExchange{
		startedAt:    time.Now(),
		performative: performative,
		receiver:     receiver,
	}
}

func (r *RTTRecorder) End(correlationID, outcome string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exchange, ok := r.pending[correlationID]
	if !ok {
		return
	}
	delete(r.pending, correlationID)
	rtt := float64(time.Since(exchange.startedAt).Microseconds()) / 1000.0
	fmt.Fprintf(r.file, "%s,%s,%s,%s,%s,%.2f,%t,%s\n",
		time.Now().Format(time.RFC3339Nano),
		r.agentName,
		exchange.receiver,
		correlationID,
		exchange.performative,
		rtt,
		success,
		outcome,
	)
}

func (r *RTTRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
