package enrich_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/arcadialabs-io/actionbridge/core/enrich"
	"github.com/arcadialabs-io/actionbridge/core/types"
	"github.com/arcadialabs-io/actionbridge/pkg/llm"
)

func toolCallResponse(arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ToolCall{
						{
							Type: openai.ToolTypeFunction,
							Function: openai.FunctionCall{
								Name:      "json",
								Arguments: arguments,
							},
						},
					},
				},
			},
		},
	}
}

var _ = Describe("Engine", func() {
	var (
		ctx  context.Context
		mock *llm.MockClient
	)

	request := func() enrich.Request {
		return enrich.Request{
			ActionType:        types.ActionTypeReminder,
			LocalTitle:        "Call the dentist",
			TriggerContext:    types.ActionPayload{"notification": "Dentist appointment reminder"},
			ConnectedToolkits: []string{"gmail"},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		mock = &llm.MockClient{}
	})

	It("parses the provider's judgment", func() {
		mock.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			return toolCallResponse(`{
				"is_actionable": true,
				"title": "Call Smile Dental",
				"subtitle": "Annual checkup is due",
				"confidence": 0.92,
				"action_params": {"title": "Call Smile Dental", "remind_at": "2026-09-02T09:00:00Z"}
			}`), nil
		}
		engine := enrich.NewEngine(mock, "test-model")

		result := engine.Enrich(ctx, request())
		Expect(result.IsActionable).To(BeTrue())
		Expect(result.Title).To(Equal("Call Smile Dental"))
		Expect(result.Subtitle).To(Equal("Annual checkup is due"))
		Expect(result.CloudConfidence).To(BeNumerically("~", 0.92, 0.001))
		Expect(result.ActionPayload.Params()).To(HaveKeyWithValue("remind_at", "2026-09-02T09:00:00Z"))
	})

	It("carries the invalidation reason for non-actionable candidates", func() {
		mock.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			return toolCallResponse(`{
				"is_actionable": false,
				"title": "Call the dentist",
				"confidence": 0.8,
				"invalidation_reason": "Appointment already happened"
			}`), nil
		}
		engine := enrich.NewEngine(mock, "test-model")

		result := engine.Enrich(ctx, request())
		Expect(result.IsActionable).To(BeFalse())
		Expect(result.InvalidationReason).To(Equal("Appointment already happened"))
	})

	Describe("fail-open fallback", func() {
		expectFallback := func(result enrich.Result) {
			Expect(result.IsActionable).To(BeTrue())
			Expect(result.Title).To(Equal("Call the dentist"))
			Expect(result.CloudConfidence).To(Equal(enrich.FallbackConfidence))
			Expect(result.ActionPayload).To(BeEmpty())
		}

		It("passes through when no provider is configured", func() {
			engine := enrich.NewEngine(nil, "")
			expectFallback(engine.Enrich(ctx, request()))
		})

		It("passes through when the provider errors", func() {
			mock.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return openai.ChatCompletionResponse{}, errors.New("connection refused")
			}
			engine := enrich.NewEngine(mock, "test-model")
			expectFallback(engine.Enrich(ctx, request()))
		})

		It("passes through when the provider returns no tool call", func() {
			mock.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return openai.ChatCompletionResponse{
					Choices: []openai.ChatCompletionChoice{
						{Message: openai.ChatCompletionMessage{Content: "sure, sounds actionable"}},
					},
				}, nil
			}
			engine := enrich.NewEngine(mock, "test-model")
			expectFallback(engine.Enrich(ctx, request()))
		})

		It("passes through when the tool arguments are not valid JSON", func() {
			mock.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return toolCallResponse(`{"is_actionable": tru`), nil
			}
			engine := enrich.NewEngine(mock, "test-model")
			expectFallback(engine.Enrich(ctx, request()))
		})
	})
})
