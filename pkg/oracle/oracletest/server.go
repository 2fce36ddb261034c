// Package oracletest runs an in-process change-specific-dependencies service
// for tests. It speaks the same SOAP 1.1 contract as the real service and
// answers from a fixed KnowledgeBase.
package oracletest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"
)

// WSDLPath is the path under which the fake serves its WSDL and operations.
const WSDLPath = "/kamp-ws/services/changeSpecificDependencies"

// Namespace is the target namespace the fake answers in.
const Namespace = "http://client.kampws.sdq.ipd.kit.edu/"

// KnowledgeBase is what the fake oracle knows.
type KnowledgeBase struct {
	Scenarios  map[string][]string // project -> change scenarios, in answer order
	Dependents map[string][]string // scenario -> affected projects
	BuildPaths map[string]string   // project -> build descriptor path
}

// Server is a fake oracle backed by httptest.
type Server struct {
	*httptest.Server

	kb KnowledgeBase

	mu      sync.Mutex
	calls   map[string]int
	latency time.Duration
	down    bool
}

// NewServer starts a fake oracle. Close it when done.
func NewServer(kb KnowledgeBase) *Server {
	s := &Server{kb: kb, calls: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// WSDL returns the WSDL URL of the fake.
func (s *Server) WSDL() string {
	return s.URL + WSDLPath + "?wsdl"
}

// Calls returns how many times op was invoked.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// SetLatency delays every answer by d.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// SetDown makes every request answer 503.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

type incoming struct {
	Body struct {
		Operation struct {
			XMLName xml.Name
			Arg     struct {
				Value string   `xml:",chardata"`
				Items []string `xml:"item"`
			} `xml:"arg0"`
		} `xml:",any"`
	} `xml:"Body"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	latency, down := s.latency, s.down
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-r.Context().Done():
			return
		}
	}
	if down {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.URL.Path != WSDLPath {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		fmt.Fprintf(w, wsdlDocument, Namespace, s.URL+WSDLPath)
	case http.MethodPost:
		s.handleCall(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req incoming
	if err := xml.Unmarshal(body, &req); err != nil {
		writeFault(w, "Client", "malformed request: "+err.Error(), false)
		return
	}

	op := req.Body.Operation.XMLName.Local
	arg := strings.TrimSpace(req.Body.Operation.Arg.Value)
	items := req.Body.Operation.Arg.Items

	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()

	switch op {
	case "getPossibleProjectNames":
		var names []string
		for name := range s.kb.Scenarios {
			names = append(names, name)
		}
		sort.Strings(names)
		writeReply(w, op, names)

	case "getChangeScenarios":
		scenarios, ok := s.kb.Scenarios[arg]
		if !ok {
			writeFault(w, "Server", fmt.Sprintf("Unknown project name: %s", arg), true)
			return
		}
		writeReply(w, op, scenarios)

	case "getChangeSpecificDependencies":
		seen := make(map[string]bool)
		var affected []string
		for _, sc := range items {
			deps, ok := s.kb.Dependents[sc]
			if !ok {
				writeFault(w, "Server", fmt.Sprintf("Unknown change scenario: %s", sc), true)
				return
			}
			for _, d := range deps {
				if !seen[d] {
					seen[d] = true
					affected = append(affected, d)
				}
			}
		}
		writeReply(w, op, affected)

	case "getBuildSpecificationPaths":
		paths := make([]string, 0, len(items))
		for _, name := range items {
			p, ok := s.kb.BuildPaths[name]
			if !ok {
				writeFault(w, "Server", fmt.Sprintf("Unknown project name: %s", name), true)
				return
			}
			paths = append(paths, p)
		}
		writeReply(w, op, paths)

	default:
		writeFault(w, "Client", fmt.Sprintf("Cannot find dispatch method for {%s}%s", Namespace, op), false)
	}
}

func writeReply(w http.ResponseWriter, op string, items []string) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body><ns2:%sResponse xmlns:ns2="%s"><return>`, op, Namespace)
	for _, item := range items {
		buf.WriteString("<item>")
		_ = xml.EscapeText(&buf, []byte(item))
		buf.WriteString("</item>")
	}
	fmt.Fprintf(&buf, `</return></ns2:%sResponse></S:Body></S:Envelope>`, op)

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func writeFault(w http.ResponseWriter, code, msg string, illegalArgument bool) {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(msg))

	var detail string
	if illegalArgument {
		detail = fmt.Sprintf(`<detail><ns2:IllegalArgumentException xmlns:ns2="%s"><message>%s</message></ns2:IllegalArgumentException></detail>`,
			Namespace, escaped.String())
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body><S:Fault><faultcode>S:%s</faultcode><faultstring>%s</faultstring>%s</S:Fault></S:Body></S:Envelope>`,
		code, escaped.String(), detail)
}

const wsdlDocument = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://schemas.xmlsoap.org/wsdl/" xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/" targetNamespace="%s" name="ChangeSpecificDependenciesService">
  <service name="ChangeSpecificDependenciesService">
    <port name="ChangeSpecificDependenciesPort" binding="tns:ChangeSpecificDependenciesPortBinding">
      <soap:address location="%s"/>
    </port>
  </service>
</definitions>
`
