package ai

import (
	"sort"
	"strings"
)

// ModelInfo describes a model's context window, used to budget prompts.
type ModelInfo struct {
	Name          string
	ContextTokens int
}

var models = map[string]ModelInfo{
	"gpt-4o-mini":   {Name: "gpt-4o-mini", ContextTokens: 128000},
	"gpt-4o":        {Name: "gpt-4o", ContextTokens: 128000},
	"gpt-4.1-mini":  {Name: "gpt-4.1-mini", ContextTokens: 1047576},
	"gpt-4.1":       {Name: "gpt-4.1", ContextTokens: 1047576},
	"gpt-3.5-turbo": {Name: "gpt-3.5-turbo", ContextTokens: 16385},
	// Ollama tags
	"llama3.1:8b":    {Name: "llama3.1:8b", ContextTokens: 131072},
	"llama3.2:3b":    {Name: "llama3.2:3b", ContextTokens: 131072},
	"mistral:7b":     {Name: "mistral:7b", ContextTokens: 32768},
	"qwen2.5:7b":     {Name: "qwen2.5:7b", ContextTokens: 32768},
	"phi3:mini":      {Name: "phi3:mini", ContextTokens: 4096},
	"gemma2:9b":      {Name: "gemma2:9b", ContextTokens: 8192},
	"deepseek-r1:7b": {Name: "deepseek-r1:7b", ContextTokens: 131072},
}

// LookupModel returns ModelInfo for name. A vendor prefix such as
// "openai/" is ignored.
func LookupModel(name string) (ModelInfo, bool) {
	if mi, ok := models[name]; ok {
		return mi, true
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		mi, ok := models[name[i+1:]]
		return mi, ok
	}
	return ModelInfo{}, false
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
