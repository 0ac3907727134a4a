/*
Package advisor produces free-text quota optimization advice from read-only
view models.

PURPOSE:
  A pure consumer of the ledger: it receives per-store gaps and per-supplier
  remaining quotas, asks a chat model for a pairing plan, and returns
  Markdown text. It never writes back into the dataset; a human translates
  suggestions into actual invoice or payment entries.
*/
package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/quotaflow/quota-engine/core"
)

// StoreAnalysis is the store-side view handed to the model.
type StoreAnalysis struct {
	CompanyName      string     `json:"companyName"`
	QuarterIncome    core.Money `json:"quarterIncome"`
	InvoicesReceived core.Money `json:"invoicesReceived"`
	Gap              core.Money `json:"gap"`
}

// SupplierAnalysis is the supplier-side view handed to the model.
type SupplierAnalysis struct {
	Name           string     `json:"name"`
	RemainingQuota core.Money `json:"remainingQuota"`
	Status         string     `json:"status"`
}

// BuildStoreAnalyses derives the store view models from state.
func BuildStoreAnalyses(state core.State) []StoreAnalysis {
	out := make([]StoreAnalysis, 0, len(state.Stores))
	for _, st := range state.Stores {
		invoiced := core.StoreInvoicedTotal(state.Invoices, st.ID)
		out = append(out, StoreAnalysis{
			CompanyName:      st.CompanyName,
			QuarterIncome:    st.QuarterIncome,
			InvoicesReceived: invoiced,
			Gap:              core.StoreGap(st, state.Invoices),
		})
	}
	return out
}

// BuildSupplierAnalyses derives the supplier view models from state.
func BuildSupplierAnalyses(state core.State) []SupplierAnalysis {
	out := make([]SupplierAnalysis, 0, len(state.Suppliers))
	for _, sup := range state.Suppliers {
		out = append(out, SupplierAnalysis{
			Name:           sup.Name,
			RemainingQuota: core.SupplierRemainingQuota(sup, state.Invoices),
			Status:         string(sup.Status),
		})
	}
	return out
}

// ChatCompleter is the slice of the OpenAI client the advisor needs.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Advisor turns analysis payloads into free-text plans via a chat model.
type Advisor struct {
	client ChatCompleter
	model  string
	log    zerolog.Logger
}

// New creates an advisor using the given client and model name.
func New(client ChatCompleter, model string, log zerolog.Logger) *Advisor {
	return &Advisor{client: client, model: model, log: log}
}

const systemPrompt = "你是一个专业的中国电商税务助手。你了解关于“个体工商户”的税务法规，特别是28万元的季度免税限额。帮助用户管理他们的发票和工厂（供应商）。请始终用中文回答。"

// Analyze asks the model for a quota pairing plan over the given views.
func (a *Advisor) Analyze(ctx context.Context, stores []StoreAnalysis, suppliers []SupplierAnalysis) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"taxRule":   fmt.Sprintf("个体工商户每季度有 %s 元的免税额度。", core.StatutoryQuarterlyLimit),
		"stores":    stores,
		"factories": suppliers,
	})
	if err != nil {
		return "", fmt.Errorf("encode analysis payload: %w", err)
	}

	prompt := fmt.Sprintf(`扮演电商集团的资深税务优化专家。
分析以下JSON数据，代表我们的店铺公司和工厂（个体户）情况。

目标：最大化利用个体户的免税额度，同时减少店铺公司的发票缺口。

数据：
%s

请提供一份简明扼要、可执行的中文Markdown格式计划：
1. 识别哪个店铺缺票最严重。
2. 识别哪些工厂还有大量剩余额度。
3. 给出具体的配对建议（例如：“让工厂X给店铺Y开具5万元发票”）。
4. 警告哪些工厂已接近28万红线。`, payload)

	a.log.Debug().
		Str("model", a.model).
		Int("stores", len(stores)).
		Int("suppliers", len(suppliers)).
		Msg("sending analysis request")

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("analysis request returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatMessage is one turn of an advisor conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat continues a free-form conversation. The system instruction is always
// prepended; history carries prior user and assistant turns in order.
func (a *Advisor) Chat(ctx context.Context, history []ChatMessage) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		role := m.Role
		if role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat request returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
