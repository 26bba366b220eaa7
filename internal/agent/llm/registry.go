package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/analyst-9000/server/internal/agent/model"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// Role identifies one of the fixed model roles of the agent.
type Role string

const (
	RoleRouter       Role = "router"
	RoleQA           Role = "qa"
	RoleSQLGenerator Role = "sql_generator"
	RoleSynthesizer  Role = "response_synthesizer"
)

// Gateway sends messages to the model behind a named role and returns the
// completion. Role configuration is fixed at startup; per-request overrides
// are applied on top without mutating it.
type Gateway interface {
	Invoke(ctx context.Context, role Role, messages []*schema.Message, ov model.Overrides) (*schema.Message, error)
}

// Config holds everything needed to construct the four role models.
type Config struct {
	APIKey      string
	BaseURL     string
	Router      model.RouterModelConfig
	QA          model.QAModelConfig
	SQL         model.SQLModelConfig
	Synthesizer model.SynthesizerModelConfig
}

// roleSettings is the effective configuration of one model invocation.
type roleSettings struct {
	model          string
	maxTokens      int
	temperature    float32
	pinTemperature bool // router and SQL generator ignore the caller's temperature
	thinkingBudget *int32
}

func (s roleSettings) apply(ov model.Overrides) roleSettings {
	out := s
	if ov.Model != "" {
		out.model = ov.Model
	}
	if ov.Temperature != nil && !s.pinTemperature {
		out.temperature = *ov.Temperature
	}
	if ov.ReasoningBudget != "" {
		if budget, ok := ResolveThinkingBudget(out.model, ov.ReasoningBudget); ok {
			out.thinkingBudget = &budget
		}
	}
	return out
}

func (s roleSettings) equal(o roleSettings) bool {
	if s.model != o.model || s.maxTokens != o.maxTokens || s.temperature != o.temperature {
		return false
	}
	if (s.thinkingBudget == nil) != (o.thinkingBudget == nil) {
		return false
	}
	return s.thinkingBudget == nil || *s.thinkingBudget == *o.thinkingBudget
}

// Registry is the process-wide model gateway. Built once at startup and
// read-only afterwards; safe for unsynchronized concurrent reads.
type Registry struct {
	client *genai.Client
	roles  map[Role]roleSettings
	cached map[Role]einomodel.BaseChatModel
}

// NewRegistry creates the Gemini client and one chat model per role.
func NewRegistry(ctx context.Context, cfg Config) (*Registry, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	r := &Registry{
		client: client,
		roles: map[Role]roleSettings{
			// Routing and SQL generation are deterministic regardless of the
			// caller-supplied temperature.
			RoleRouter: {
				model:          cfg.Router.Model,
				maxTokens:      cfg.Router.MaxTokens,
				temperature:    0,
				pinTemperature: true,
			},
			RoleQA: {
				model:       cfg.QA.Model,
				maxTokens:   cfg.QA.MaxTokens,
				temperature: cfg.QA.Temperature,
			},
			RoleSQLGenerator: {
				model:          cfg.SQL.Model,
				maxTokens:      cfg.SQL.MaxTokens,
				temperature:    0,
				pinTemperature: true,
			},
			RoleSynthesizer: {
				model:       cfg.Synthesizer.Model,
				maxTokens:   cfg.Synthesizer.MaxTokens,
				temperature: cfg.Synthesizer.Temperature,
			},
		},
		cached: make(map[Role]einomodel.BaseChatModel, 4),
	}

	for role, settings := range r.roles {
		cm, err := r.build(ctx, settings)
		if err != nil {
			logx.Error().Err(err).Str("role", string(role)).Msg("Error creating role model")
			return nil, fmt.Errorf("error creating %s model: %w", role, err)
		}
		r.cached[role] = cm
		logx.Debug().Str("role", string(role)).Str("model", settings.model).Msg("Role model initialized")
	}

	return r, nil
}

func (r *Registry) build(ctx context.Context, s roleSettings) (einomodel.BaseChatModel, error) {
	cfg := &gemini.Config{
		Client:      r.client,
		Model:       s.model,
		Temperature: &s.temperature,
		MaxTokens:   &s.maxTokens,
	}
	if s.thinkingBudget != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(*s.thinkingBudget),
		}
	}
	return gemini.NewChatModel(ctx, cfg)
}

// Invoke implements Gateway. When the request carries no effective overrides
// the prebuilt role model is reused; otherwise a model with the overridden
// configuration is constructed on the shared client.
func (r *Registry) Invoke(ctx context.Context, role Role, messages []*schema.Message, ov model.Overrides) (*schema.Message, error) {
	settings, ok := r.roles[role]
	if !ok {
		return nil, fmt.Errorf("unknown model role %q", role)
	}

	effective := settings.apply(ov)
	cm := r.cached[role]
	if !effective.equal(settings) {
		var err error
		cm, err = r.build(ctx, effective)
		if err != nil {
			return nil, fmt.Errorf("error configuring %s model: %w", role, err)
		}
	}

	out, err := cm.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("role", string(role)).Str("model", effective.model).
			Strs("tags", Tags(role)).Msg("Model invocation failed")
		return nil, err
	}

	logUsage(role, effective.model, out)
	return out, nil
}

// logUsage records token usage and USD cost for one completed model call.
func logUsage(role Role, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := ComputeCost(usage, ResolvePricing(modelName))
	logx.Debug().
		Str("role", string(role)).
		Str("model", modelName).
		Strs("tags", Tags(role)).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

var _ Gateway = (*Registry)(nil)
