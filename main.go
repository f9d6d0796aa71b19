package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hypebeast/go-osc/osc"

	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/oscgraph"
)

type backendReadyMsg struct{}

type frameTickMsg struct{}

type splashTickMsg struct{}

type inputLoadedMsg struct {
	path string
	err  error
}

func main() {
	var oscPort int
	var saveFile string
	var bps float64
	var debugLog string
	var offline bool
	flag.IntVar(&oscPort, "osc-port", 57120, "OSC port of the synthesis server")
	flag.StringVar(&saveFile, "save-file", "project.json.gz", "Project file to load from or create")
	flag.Float64Var(&bps, "bps", 2, "Tempo in beats per second")
	flag.StringVar(&debugLog, "debug", "", "If set, write debug logs to this file; empty disables logging")
	flag.BoolVar(&offline, "offline", false, "Use the in-memory audio graph instead of the OSC backend")
	flag.Parse()

	if debugLog != "" {
		f, err := tea.LogToFile(debugLog, "debug")
		if err != nil {
			log.Printf("Fatal: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetOutput(io.Discard)
	}

	var graph audiograph.Graph
	var oscG *oscgraph.Graph
	var memG *audiograph.MemGraph
	if offline {
		memG = audiograph.NewMemGraph(44100)
		graph = memG
	} else {
		oscG = oscgraph.New("localhost", oscPort, 44100)
		graph = oscG
	}

	m, err := newStudioModel(graph, oscG, memG, bps, saveFile, !offline)
	if err != nil {
		log.Printf("Fatal: %v", err)
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if offline {
		go func() { p.Send(backendReadyMsg{}) }()
	} else {
		// The server pings /status once its synthdefs are loaded; the splash
		// stays up until then.
		ready := make(chan struct{}, 1)
		d := osc.NewStandardDispatcher()
		if err := d.AddMsgHandler("/status", func(*osc.Message) {
			select {
			case ready <- struct{}{}:
			default:
			}
		}); err != nil {
			log.Printf("OSC dispatcher: %v", err)
		}
		server := &osc.Server{Addr: fmt.Sprintf(":%d", oscPort+1), Dispatcher: d}
		go func() {
			log.Printf("Starting OSC server on port %d", oscPort+1)
			if err := server.ListenAndServe(); err != nil {
				log.Printf("OSC server: %v", err)
			}
		}()
		go func() {
			<-ready
			log.Printf("Audio backend ready; hiding splash")
			p.Send(backendReadyMsg{})
		}()
	}

	if _, err := p.Run(); err != nil {
		log.Printf("Error: %v", err)
	}
}

// tickFrame schedules the next animation frame at ~30fps; playback
// advancement and redraw polling both ride on it.
func tickFrame() tea.Cmd {
	return tea.Tick(time.Second/30, func(time.Time) tea.Msg {
		return frameTickMsg{}
	})
}

func tickSplash() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(time.Time) tea.Msg {
		return splashTickMsg{}
	})
}
