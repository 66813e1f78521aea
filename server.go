package main

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server wires the triage core to its HTTP surface.
type Server struct {
	db         *sql.DB
	pipeline   *Pipeline
	dispatcher *Dispatcher
	agent      *AgentLoop
	sink       Sink
	oracle     Oracle
}

func NewServer(db *sql.DB, pipeline *Pipeline, dispatcher *Dispatcher, agent *AgentLoop, sink Sink, oracle Oracle) *Server {
	return &Server{db: db, pipeline: pipeline, dispatcher: dispatcher, agent: agent, sink: sink, oracle: oracle}
}

func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/", s.health)
	router.GET("/tickets", s.listTickets)
	router.POST("/tickets", s.createTicket)
	router.POST("/handle_complaint", s.handleComplaint)
	router.POST("/api/agent_route", s.agentRoute)
	router.POST("/api/start_orchestration", s.startOrchestration)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "triagebot is running"})
}

func (s *Server) listTickets(c *gin.Context) {
	tickets, err := ListTickets(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	if tickets == nil {
		tickets = []Ticket{}
	}
	c.JSON(http.StatusOK, tickets)
}

func (s *Server) createTicket(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	ticket, err := InsertTicket(s.db, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ticket"})
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// handleComplaint runs the classification pipeline and, for high-priority
// results, the escalation dispatch. The classification result is returned even
// when the escalation fails; the failure shows up in escalation_status.
func (s *Server) handleComplaint(c *gin.Context) {
	var req struct {
		Complaint *string `json:"complaint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Complaint == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must contain 'complaint'"})
		return
	}
	complaint := *req.Complaint

	ctx := c.Request.Context()
	result := s.pipeline.Process(ctx, complaint)

	resp := gin.H{"status": result.Status}
	rec := TriageRecord{
		Complaint: complaint,
		Status:    result.Status,
		Priority:  result.Priority,
		Category:  result.Category,
		Model:     s.oracle.Model(),
	}

	if result.Status == StatusDuplicate {
		resp["message"] = "Duplicate complaint detected."
	} else {
		resp["priority"] = result.Priority
		resp["category"] = result.Category

		ticket, err := InsertTicket(s.db, complaint)
		if err != nil {
			// Without a ticket row there is no id to escalate against.
			log.Printf("handle_complaint ticket insert error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record ticket"})
			return
		}

		if result.Priority == PriorityHigh {
			log.Printf("handle_complaint high priority, escalating ticket=%d", ticket.ID)
			outcome := s.dispatcher.Dispatch(ctx, PriorityHigh, TicketContext{
				TicketID:  ticket.ID,
				Complaint: complaint,
				Category:  result.Category,
			})
			if outcome.Kind == ActionTaken {
				rec.EscalationStatus = escalationTriggered
			} else {
				rec.EscalationStatus = escalationFailed
			}
			resp["escalation_status"] = rec.EscalationStatus
			if outcome.SinkBody != nil {
				resp["n8n_response"] = outcome.SinkBody
			} else {
				resp["n8n_response"] = gin.H{"error": outcome.Detail}
			}
		}
	}

	if err := RecordTriage(s.db, rec); err != nil {
		log.Printf("handle_complaint audit record error: %v", err)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) agentRoute(c *gin.Context) {
	var req struct {
		CustomerEmail string `json:"customer_email"`
		TicketID      int64  `json:"ticket_id"`
		Query         string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CustomerEmail == "" || req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_email and query are required"})
		return
	}

	result, err := s.agent.Run(c.Request.Context(), TicketContext{
		TicketID:      req.TicketID,
		CustomerEmail: req.CustomerEmail,
		Complaint:     req.Query,
	})
	if err != nil {
		if errors.Is(err, ErrIterationBudget) {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "agent_execution_failed", "error": err.Error()})
			return
		}
		resp := gin.H{"status": "failed", "error": err.Error()}
		if result.Response != "" {
			resp["agent_response"] = result.Response
		}
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "agent_response": result.Response})
}

// startOrchestration proxies an arbitrary payload straight to the workflow
// sink, bypassing the classification pipeline.
func (s *Server) startOrchestration(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing data in request body"})
		return
	}

	body, status, err := s.sink.Dispatch(c.Request.Context(), payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Orchestration trigger failed", "n8n_error": err.Error()})
		return
	}
	if status >= http.StatusBadRequest {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Orchestration trigger failed", "n8n_error": body})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Orchestration successfully initiated via n8n", "n8n_status": body})
}
