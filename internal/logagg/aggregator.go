// ABOUTME: Correlated log aggregator merging console and test-driver streams
// ABOUTME: Displays entries live and persists them with flush-per-write

package logagg

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/harper/mcp-probe/internal/logger"
)

const consumerPollInterval = 100 * time.Millisecond

// Broadcaster receives each rendered line for live forwarding (e.g. to
// attached websocket viewers). Implementations must not block.
type Broadcaster interface {
	Broadcast(line string)
}

// Config describes one aggregation session.
type Config struct {
	Target     string // device address, recorded in the file header
	SerialPort string // empty disables the console producer
	BaudRate   int
	Display    io.Writer   // defaults to stdout
	Live       Broadcaster // optional
	OpenPort   func(name string, baud int) (Port, error)
	NoColor    bool
}

// Aggregator merges the console producer and any subprocess producers
// into one ordered stream. Cross-producer order is queue-arrival order,
// not strict wall-clock order; each entry carries its own timestamp so a
// reader can re-sort offline if strict chronology matters.
type Aggregator struct {
	cfg Config

	queue        chan Entry
	stopProduce  chan struct{}
	stopConsume  chan struct{}
	producers    sync.WaitGroup
	consumerDone chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	mu      sync.Mutex
	port    Port
	sink    *os.File
	started bool
}

func New(cfg Config) *Aggregator {
	if cfg.Display == nil {
		cfg.Display = os.Stdout
	}
	if cfg.OpenPort == nil {
		cfg.OpenPort = OpenPort
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 74880
	}
	return &Aggregator{
		cfg:          cfg,
		queue:        make(chan Entry, 1024),
		stopProduce:  make(chan struct{}),
		stopConsume:  make(chan struct{}),
		consumerDone: make(chan struct{}),
	}
}

// Enqueue delivers an entry to the consumer. Producers block briefly if
// the consumer falls behind; entries are never dropped while the
// aggregator is running.
func (a *Aggregator) Enqueue(e Entry) {
	select {
	case a.queue <- e:
		return
	default:
	}
	select {
	case a.queue <- e:
	case <-a.stopConsume:
	}
}

// Start opens the optional output file, starts the console producer and
// the consumer. A console that fails to open is reported as an ERROR
// entry; the subprocess producer and consumer keep working without it.
func (a *Aggregator) Start(filePath string) error {
	var startErr error
	a.startOnce.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		if filePath != "" {
			sink, err := os.Create(filePath)
			if err != nil {
				startErr = fmt.Errorf("open log file: %w", err)
				return
			}
			a.sink = sink
			a.writeHeader()
		}

		if a.cfg.SerialPort != "" {
			port, err := a.cfg.OpenPort(a.cfg.SerialPort, a.cfg.BaudRate)
			if err != nil {
				// Partial failure: keep the rest of the session alive.
				a.Enqueue(newEntry(SourceDevice, LevelError,
					fmt.Sprintf("serial connection failed: %v", err), ""))
				logger.Warn("serial connection failed: %v", err)
			} else {
				a.port = port
				monitor := newConsoleMonitor(port, a.Enqueue, a.stopProduce)
				a.producers.Add(1)
				go func() {
					defer a.producers.Done()
					monitor.run()
				}()
				logger.Info("serial monitor connected to %s at %d baud", a.cfg.SerialPort, a.cfg.BaudRate)
			}
		}

		go a.consume()
		a.started = true
	})
	return startErr
}

// Stop shuts down in order: producers first, then the consumer (which
// drains whatever is queued), then the serial handle and output file.
// Idempotent, and safe even if Start partially failed.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		port := a.port
		started := a.started
		a.mu.Unlock()

		// Close the port first so a blocked serial read unblocks.
		if port != nil {
			port.Close()
		}

		close(a.stopProduce)
		a.producers.Wait()

		close(a.stopConsume)
		if started {
			<-a.consumerDone
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.sink != nil {
			a.sink.Close()
			a.sink = nil
		}
	})
}

// consume drains the queue onto the display, the file sink, and the live
// broadcaster. After the stop signal it delivers whatever is already
// queued, then exits.
func (a *Aggregator) consume() {
	defer close(a.consumerDone)

	ticker := time.NewTicker(consumerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-a.queue:
			a.deliver(entry)
		case <-a.stopConsume:
			for {
				select {
				case entry := <-a.queue:
					a.deliver(entry)
				default:
					return
				}
			}
		case <-ticker.C:
			// Wake periodically so a stop with an idle queue is observed
			// within one poll interval.
		}
	}
}

func (a *Aggregator) deliver(entry Entry) {
	line := renderEntry(entry, a.cfg.NoColor)
	fmt.Fprintln(a.cfg.Display, line)

	if a.cfg.Live != nil {
		a.cfg.Live.Broadcast(plainLine(entry))
	}

	a.mu.Lock()
	sink := a.sink
	a.mu.Unlock()
	if sink != nil {
		if _, err := sink.WriteString(fileLine(entry)); err != nil {
			logger.Error("log file write failed: %v", err)
			return
		}
		// Flush so the file stays current even if the process is killed.
		if err := sink.Sync(); err != nil {
			logger.Debug("log file sync: %v", err)
		}
	}
}

func (a *Aggregator) writeHeader() {
	fmt.Fprintf(a.sink, "# MCP Device Integrated Test Log\n")
	fmt.Fprintf(a.sink, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(a.sink, "# Target: %s\n", a.cfg.Target)
	fmt.Fprintf(a.sink, "# Serial Port: %s\n", a.cfg.SerialPort)
	fmt.Fprintf(a.sink, "# Baud Rate: %d\n", a.cfg.BaudRate)
	fmt.Fprintf(a.sink, "%s\n", headerRule)
	a.sink.Sync()
}

const headerRule = "================================================================================"
