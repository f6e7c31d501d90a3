// Package ai generates product listing copy with Gemini.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-1.5-flash"

// maxToolTurns bounds the function-calling loop.
const maxToolTurns = 4

// ProductLister is the read-only catalog access the model may use.
type ProductLister interface {
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error)
}

// ListingRequest describes the craft piece an artisan wants copy for.
type ListingRequest struct {
	Name      string   `json:"name" binding:"required"`
	Category  string   `json:"category"`
	Region    string   `json:"region"`
	Materials []string `json:"materials"`
	Notes     string   `json:"notes"`
}

// ListingCopy is the generated text.
type ListingCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Story       string `json:"story"`
	TokensUsed  int    `json:"tokensUsed"`
}

// Service holds the Gemini client and read access to the catalog.
type Service struct {
	client    *genai.Client
	modelName string
	catalog   ProductLister
	log       *zap.Logger
}

// NewService initializes the Gemini client.
func NewService(ctx context.Context, apiKey, modelName string, catalog ProductLister, log *zap.Logger) (*Service, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Service{client: client, modelName: modelName, catalog: catalog, log: log}, nil
}

// Close releases the client.
func (s *Service) Close() error {
	return s.client.Close()
}

var similarListingsTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        "similar_listings",
			Description: "Returns existing marketplace listings in a category, to match tone and avoid duplicate titles.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category": {
						Type:        genai.TypeString,
						Description: "Category slug, e.g. textiles or pottery.",
					},
				},
				Required: []string{"category"},
			},
		},
	},
}

// GenerateListingCopy asks the model for a title, description and origin
// story for req.
func (s *Service) GenerateListingCopy(ctx context.Context, req ListingRequest) (*ListingCopy, error) {
	// 1. Configure the model
	model := s.client.GenerativeModel(s.modelName)
	model.Tools = []*genai.Tool{similarListingsTool}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			`You write listings for The Artisan's Loom, a marketplace for Indian craft. ` +
				`Reply with JSON only: {"title": string, "description": string, "story": string}.`)},
	}

	// 2. Send the request
	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(describe(req)))
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}

	// 3. Answer tool calls until the model replies with text
	for turn := 0; ; turn++ {
		if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("empty response from model")
		}
		part := res.Candidates[0].Content.Parts[0]

		funcCall, ok := part.(genai.FunctionCall)
		if !ok {
			out := parseListingCopy(fmt.Sprintf("%v", part))
			if res.UsageMetadata != nil {
				out.TokensUsed = int(res.UsageMetadata.TotalTokenCount)
			}
			return out, nil
		}
		if turn >= maxToolTurns {
			return nil, fmt.Errorf("model kept calling tools after %d turns", maxToolTurns)
		}
		if funcCall.Name != similarListingsTool.FunctionDeclarations[0].Name {
			return nil, fmt.Errorf("unknown function: %s", funcCall.Name)
		}

		category, _ := funcCall.Args["category"].(string)
		s.log.Debug("model requested similar listings", zap.String("category", category))
		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     funcCall.Name,
			Response: map[string]any{"listings": s.similarListings(ctx, category)},
		})
		if err != nil {
			return nil, fmt.Errorf("tool response error: %w", err)
		}
	}
}

// similarListings returns up to five "name: description" lines.
func (s *Service) similarListings(ctx context.Context, category string) []string {
	products, err := s.catalog.ListProducts(ctx, store.ProductFilter{Category: category})
	if err != nil {
		s.log.Warn("similar listings lookup failed", zap.Error(err))
		return nil
	}
	var out []string
	for i, p := range products {
		if i == 5 {
			break
		}
		out = append(out, p.Name+": "+p.Description)
	}
	return out
}

func describe(req ListingRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Piece: %s\n", req.Name)
	if req.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.Category)
	}
	if req.Region != "" {
		fmt.Fprintf(&b, "Region: %s\n", req.Region)
	}
	if len(req.Materials) > 0 {
		fmt.Fprintf(&b, "Materials: %s\n", strings.Join(req.Materials, ", "))
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Artisan notes: %s\n", req.Notes)
	}
	return b.String()
}

// parseListingCopy reads the model's JSON reply. Code fences are stripped;
// anything unparseable becomes the description.
func parseListingCopy(text string) *ListingCopy {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var out ListingCopy
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil || out.Description == "" {
		return &ListingCopy{Description: strings.TrimSpace(text)}
	}
	return &out
}
