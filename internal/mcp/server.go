// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the courrier letter workflow as tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/pkg/models"
)

// Server wraps the letter manager and exposes it as MCP tools.
type Server struct {
	server    *gomcp.Server
	letterMgr core.LetterManager
}

// NewServer creates a new MCP server backed by letterMgr.
func NewServer(letterMgr core.LetterManager, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{letterMgr: letterMgr}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "courrier", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listLetterTypesInput struct{}

type fieldOutput struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Kind        string   `json:"kind"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

type letterTypeOutput struct {
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Fields      []fieldOutput `json:"fields"`
}

type listLetterTypesOutput struct {
	Types []letterTypeOutput `json:"types"`
	Count int                `json:"count"`
}

type recipientInput struct {
	Company    string `json:"company,omitempty" jsonschema:"company or organisation name"`
	FirstName  string `json:"first_name,omitempty" jsonschema:"recipient first name"`
	LastName   string `json:"last_name,omitempty" jsonschema:"recipient last name"`
	Service    string `json:"service,omitempty" jsonschema:"department or service"`
	Email      string `json:"email,omitempty" jsonschema:"recipient email address"`
	Address    string `json:"address" jsonschema:"street address"`
	PostalCode string `json:"postal_code" jsonschema:"postal code"`
	City       string `json:"city" jsonschema:"city"`
}

type generateLetterInput struct {
	Type      string            `json:"type" jsonschema:"letter type, one of the values returned by list_letter_types"`
	Recipient recipientInput    `json:"recipient" jsonschema:"who the letter is addressed to"`
	Fields    map[string]string `json:"fields,omitempty" jsonschema:"values for the letter type's fields, keyed by field key"`
	Draft     bool              `json:"draft,omitempty" jsonschema:"store the letter as a draft instead of completed"`
	DryRun    bool              `json:"dry_run,omitempty" jsonschema:"validate and return the prompt without calling the generation service"`
}

type letterOutput struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Title     string           `json:"title"`
	Status    string           `json:"status"`
	Content   string           `json:"content,omitempty"`
	Recipient models.Recipient `json:"recipient"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

type generateLetterOutput struct {
	Letter *letterOutput `json:"letter,omitempty"`
	Prompt string        `json:"prompt,omitempty"`
}

type listLettersInput struct {
	NewestFirst bool `json:"newest_first,omitempty" jsonschema:"sort by creation date, newest first, instead of storage order"`
}

type listLettersOutput struct {
	Letters []letterOutput `json:"letters"`
	Count   int            `json:"count"`
}

type letterIDInput struct {
	ID string `json:"id" jsonschema:"the letter ID or a unique prefix of at least 4 characters"`
}

type deleteLetterInput struct {
	ID string `json:"id" jsonschema:"the exact letter ID"`
}

type deleteLetterOutput struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}

type getStatisticsInput struct{}

type dayActivityOutput struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type statisticsOutput struct {
	TotalLetters   int                 `json:"total_letters"`
	LettersByType  map[string]int      `json:"letters_by_type"`
	RecentActivity []dayActivityOutput `json:"recent_activity"`
	MonthlyGrowth  float64             `json:"monthly_growth"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_letter_types",
		Description: "List the available letter types with their form fields, in catalog order.",
	}, s.handleListLetterTypes)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_letter",
		Description: "Generate a letter for the stored user profile and save it to the history. Requires a complete profile, the recipient address and the type's required fields.",
	}, s.handleGenerateLetter)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_letters",
		Description: "List saved letters without their content.",
	}, s.handleListLetters)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_letter",
		Description: "Get a saved letter, including its full content.",
	}, s.handleGetLetter)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_letter",
		Description: "Delete a saved letter. Deleting an unknown ID is not an error.",
	}, s.handleDeleteLetter)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_statistics",
		Description: "Get letter statistics: totals per type, activity over the last 7 days and month-over-month growth.",
	}, s.handleGetStatistics)
}

// --- Tool handlers ---

func (s *Server) handleListLetterTypes(_ context.Context, _ *gomcp.CallToolRequest, _ listLetterTypesInput) (*gomcp.CallToolResult, listLetterTypesOutput, error) {
	defs := s.letterMgr.Registry().All()
	out := listLetterTypesOutput{
		Types: make([]letterTypeOutput, len(defs)),
		Count: len(defs),
	}
	for i, d := range defs {
		lt := letterTypeOutput{
			Type:        string(d.Type),
			Title:       d.Title,
			Description: d.Description,
			Fields:      make([]fieldOutput, len(d.Fields)),
		}
		for j, f := range d.Fields {
			lt.Fields[j] = fieldOutput{
				Key:         f.Key,
				Label:       f.Label,
				Kind:        string(f.Kind),
				Required:    f.Required,
				Options:     f.Options,
				Placeholder: f.Placeholder,
			}
		}
		out.Types[i] = lt
	}
	return nil, out, nil
}

func (s *Server) handleGenerateLetter(ctx context.Context, _ *gomcp.CallToolRequest, input generateLetterInput) (*gomcp.CallToolResult, generateLetterOutput, error) {
	profile, ok := s.letterMgr.GetProfile()
	if !ok {
		return errorResult("no user profile configured: run 'courrier profile set' first"), generateLetterOutput{}, nil
	}

	req := models.LetterRequest{
		Profile: *profile,
		Recipient: models.Recipient{
			Company:    input.Recipient.Company,
			FirstName:  input.Recipient.FirstName,
			LastName:   input.Recipient.LastName,
			Service:    input.Recipient.Service,
			Email:      input.Recipient.Email,
			Address:    input.Recipient.Address,
			PostalCode: input.Recipient.PostalCode,
			City:       input.Recipient.City,
		},
		Type:           models.LetterType(input.Type),
		AdditionalInfo: models.AdditionalInfo(input.Fields),
		Draft:          input.Draft,
	}

	if input.DryRun {
		prompt, err := s.letterMgr.Preview(req)
		if err != nil {
			return errorResult(err.Error()), generateLetterOutput{}, nil
		}
		return nil, generateLetterOutput{Prompt: prompt}, nil
	}

	letter, err := s.letterMgr.Generate(ctx, req)
	if err != nil {
		if letter != nil {
			// Generated but not saved: still hand the text back.
			out := letterToOutput(*letter, true)
			return errorResult(fmt.Sprintf("%s (the letter below was not saved)\n\n%s", err, letter.Content)), generateLetterOutput{Letter: &out}, nil
		}
		return errorResult(err.Error()), generateLetterOutput{}, nil
	}

	out := letterToOutput(*letter, true)
	return nil, generateLetterOutput{Letter: &out}, nil
}

func (s *Server) handleListLetters(_ context.Context, _ *gomcp.CallToolRequest, input listLettersInput) (*gomcp.CallToolResult, listLettersOutput, error) {
	letters := s.letterMgr.ListLetters(input.NewestFirst)
	out := listLettersOutput{
		Letters: make([]letterOutput, len(letters)),
		Count:   len(letters),
	}
	for i, l := range letters {
		out.Letters[i] = letterToOutput(l, false)
	}
	return nil, out, nil
}

func (s *Server) handleGetLetter(_ context.Context, _ *gomcp.CallToolRequest, input letterIDInput) (*gomcp.CallToolResult, letterOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), letterOutput{}, nil
	}

	letter, err := s.letterMgr.GetLetter(input.ID)
	if err != nil {
		if errors.Is(err, core.ErrLetterNotFound) {
			return errorResult(fmt.Sprintf("letter %s not found", input.ID)), letterOutput{}, nil
		}
		return errorResult(fmt.Sprintf("getting letter %s: %s", input.ID, err)), letterOutput{}, nil
	}

	return nil, letterToOutput(*letter, true), nil
}

func (s *Server) handleDeleteLetter(_ context.Context, _ *gomcp.CallToolRequest, input deleteLetterInput) (*gomcp.CallToolResult, deleteLetterOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), deleteLetterOutput{}, nil
	}

	deleted, err := s.letterMgr.DeleteLetter(input.ID)
	if err != nil {
		return errorResult(err.Error()), deleteLetterOutput{}, nil
	}

	msg := fmt.Sprintf("letter %s deleted", input.ID)
	if !deleted {
		msg = fmt.Sprintf("letter %s did not exist", input.ID)
	}
	return nil, deleteLetterOutput{Deleted: deleted, Message: msg}, nil
}

func (s *Server) handleGetStatistics(_ context.Context, _ *gomcp.CallToolRequest, _ getStatisticsInput) (*gomcp.CallToolResult, statisticsOutput, error) {
	stats := s.letterMgr.Statistics()

	out := statisticsOutput{
		TotalLetters:   stats.TotalLetters,
		LettersByType:  make(map[string]int, len(stats.LettersByType)),
		RecentActivity: make([]dayActivityOutput, len(stats.RecentActivity)),
		MonthlyGrowth:  stats.MonthlyGrowth,
	}
	for t, n := range stats.LettersByType {
		out.LettersByType[string(t)] = n
	}
	for i, a := range stats.RecentActivity {
		out.RecentActivity[i] = dayActivityOutput{Day: a.Day, Count: a.Count}
	}
	return nil, out, nil
}

// --- Helpers ---

func letterToOutput(l models.Letter, withContent bool) letterOutput {
	out := letterOutput{
		ID:        l.ID,
		Type:      string(l.Type),
		Title:     l.Title,
		Status:    string(l.Status),
		Recipient: l.Recipient,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
		UpdatedAt: l.UpdatedAt.Format(time.RFC3339),
	}
	if withContent {
		out.Content = l.Content
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
