package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hollowvm/intcode/debugger"
	"github.com/hollowvm/intcode/internal/vm"
)

// handleCreateSession handles POST /sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.sessions.CreateSession(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create session: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, SessionCreateResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// handleListSessions handles GET /sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	})
}

// handleDestroySession handles DELETE /sessions/{id}.
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Session destroyed"})
}

// handleGetState handles GET /sessions/{id}/state.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, s.stateResponse(session))
}

// stateResponse builds the JSON state snapshot for a session.
func (s *Server) stateResponse(session *Session) StateResponse {
	dbg := session.Debugger

	resp := StateResponse{
		SessionID: session.ID,
		IP:        dbg.VM.IP(),
		RB:        dbg.VM.RelativeBase(),
		StepCount: dbg.StepCount,
		Halted:    session.Halted,
		Waiting:   session.Waiting,
	}
	if session.HasOutput {
		v := session.LastOutput
		resp.LastOutput = &v
	}
	return resp
}

// handleStep handles POST /sessions/{id}/step: executes exactly one
// instruction via StepOver, regardless of breakpoints/watchpoints.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	result, settled, stepErr := session.Debugger.StepOver()
	if stepErr != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Step failed: %v", stepErr))
		return
	}

	s.applyResult(session, result, settled)
	s.broadcastState(session)

	writeJSON(w, http.StatusOK, s.stateResponse(session))
}

// handleContinue handles POST /sessions/{id}/continue: drives the
// session until the next breakpoint/watchpoint, I/O event, or halt.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	result, reason, runErr := session.Debugger.Continue()
	if runErr != nil {
		s.broadcaster.BroadcastExecutionEvent(sessionID, "error", map[string]interface{}{"message": runErr.Error()})
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Runtime error: %v", runErr))
		return
	}

	// A breakpoint/watchpoint stop carries a zero Result, not a VM event.
	s.applyResult(session, result, reason == "")
	s.broadcastState(session)
	if reason != "" {
		s.broadcaster.BroadcastExecutionEvent(sessionID, "stopped", map[string]interface{}{"reason": reason, "ip": session.Debugger.VM.IP()})
	}

	writeJSON(w, http.StatusOK, s.stateResponse(session))
}

// handleReset handles POST /sessions/{id}/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	session.Debugger.Reset()
	session.Halted = false
	session.Waiting = false
	session.HasOutput = false

	s.broadcastState(session)

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "session reset"})
}

// applyResult updates the session's cached halted/waiting/output state
// from a Step/Continue result, and broadcasts an output event for any
// yielded value. settled is false when result is not a VM event (an
// instruction that neither yielded, waited nor halted).
func (s *Server) applyResult(session *Session, result vm.Result, settled bool) {
	session.Waiting = false
	session.Halted = false
	if !settled {
		return
	}

	switch result.Kind {
	case vm.Complete:
		session.Halted = true
	case vm.Yielded:
		session.LastOutput = result.Value
		session.HasOutput = true
		_, _ = session.Output.Write([]byte(strconv.FormatInt(result.Value, 10)))
	case vm.Waiting:
		session.Waiting = true
	}
}

func (s *Server) broadcastState(session *Session) {
	if s.broadcaster == nil {
		return
	}
	resp := s.stateResponse(session)
	s.broadcaster.BroadcastState(session.ID, map[string]interface{}{
		"ip":        resp.IP,
		"rb":        resp.RB,
		"stepCount": resp.StepCount,
		"halted":    resp.Halted,
		"waiting":   resp.Waiting,
	})
}

// handleStdin handles POST /sessions/{id}/stdin: feeds a value to a
// session paused on vm.Waiting.
func (s *Server) handleStdin(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req StdinRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session.Debugger.VM.Feed(req.Value)
	session.Waiting = false

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "input fed"})
}

// handleAddBreakpoint handles POST /sessions/{id}/breakpoints.
func (s *Server) handleAddBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bp := session.Debugger.Breakpoints.AddBreakpoint(req.Address, req.Temporary, req.Condition)

	writeJSON(w, http.StatusCreated, toBreakpointResponse(bp))
}

// handleDeleteBreakpoint handles DELETE /sessions/{id}/breakpoints/{bpID}.
func (s *Server) handleDeleteBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string, bpID int) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if err := session.Debugger.Breakpoints.DeleteBreakpoint(bpID); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Failed to delete breakpoint: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "breakpoint deleted"})
}

// handleListBreakpoints handles GET /sessions/{id}/breakpoints.
func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	all := session.Debugger.Breakpoints.GetAllBreakpoints()
	resp := BreakpointsResponse{Breakpoints: make([]BreakpointResponse, len(all))}
	for i, bp := range all {
		resp.Breakpoints[i] = toBreakpointResponse(bp)
	}

	writeJSON(w, http.StatusOK, resp)
}

func toBreakpointResponse(bp *debugger.Breakpoint) BreakpointResponse {
	return BreakpointResponse{
		ID:        bp.ID,
		Address:   bp.Address,
		Enabled:   bp.Enabled,
		Temporary: bp.Temporary,
		Condition: bp.Condition,
		HitCount:  bp.HitCount,
	}
}

// handleAddWatchpoint handles POST /sessions/{id}/watchpoints.
func (s *Server) handleAddWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req WatchpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wpType, err := parseWatchType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wp := session.Debugger.Watchpoints.AddWatchpoint(wpType, req.Expression, req.Address)
	if err := session.Debugger.Watchpoints.InitializeWatchpoint(wp.ID, session.Debugger.VM); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to initialize watchpoint: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, toWatchpointResponse(wp))
}

// handleDeleteWatchpoint handles DELETE /sessions/{id}/watchpoints/{wpID}.
func (s *Server) handleDeleteWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string, wpID int) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if err := session.Debugger.Watchpoints.DeleteWatchpoint(wpID); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Failed to delete watchpoint: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "watchpoint deleted"})
}

// handleListWatchpoints handles GET /sessions/{id}/watchpoints.
func (s *Server) handleListWatchpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	all := session.Debugger.Watchpoints.GetAllWatchpoints()
	resp := WatchpointsResponse{Watchpoints: make([]WatchpointResponse, len(all))}
	for i, wp := range all {
		resp.Watchpoints[i] = toWatchpointResponse(wp)
	}

	writeJSON(w, http.StatusOK, resp)
}

func toWatchpointResponse(wp *debugger.Watchpoint) WatchpointResponse {
	return WatchpointResponse{
		ID:         wp.ID,
		Type:       watchTypeName(wp.Type),
		Expression: wp.Expression,
		Address:    wp.Address,
	}
}

func watchTypeName(t debugger.WatchType) string {
	switch t {
	case debugger.WatchRead:
		return "read"
	case debugger.WatchWrite:
		return "write"
	default:
		return "readwrite"
	}
}

func parseWatchType(s string) (debugger.WatchType, error) {
	switch s {
	case "", "readwrite":
		return debugger.WatchReadWrite, nil
	case "read":
		return debugger.WatchRead, nil
	case "write":
		return debugger.WatchWrite, nil
	default:
		return 0, fmt.Errorf("invalid watchpoint type %q (must be read, write, or readwrite)", s)
	}
}

// handleEvaluate handles POST /sessions/{id}/evaluate.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req EvaluateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	value, err := session.Debugger.Evaluator.EvaluateExpression(req.Expression, session.Debugger.VM, session.Debugger.Symbols)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to evaluate expression: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{Value: value})
}
