// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai defines the model-backed services used by eventsift and the
// deterministic behavior they fall back to.
//
// # Interfaces
//
//   - Classifier: judges a content fragment against an event description
//   - KeywordExtractor: turns an event description into search keywords
//   - Provider: aggregates both for initialization and shutdown
//
// Implementations live in subpackages (ai/openai for OpenAI-compatible chat
// endpoints, ai/mock for tests).
//
// # Degradation
//
// Neither service surfaces remote failures. Each call walks down a fixed
// list of tiers until one produces a result:
//
//	classifier: model verdict -> JudgeFallback
//	extractor:  model keywords -> SplitKeywords
//
// With no credential configured the model tier is skipped entirely: the
// classifier uses JudgeFallback and the extractor uses TokenizeKeywords.
//
// Model output goes through ParseResponse, which tries each entry of
// ParseStrategies in order (plain JSON, then fenced JSON) and returns a
// ParseResult. Anything else is unparseable and the caller falls back.
//
// # Configuration
//
// Config follows the usual option pattern:
//
//	cfg := ai.NewConfig(ai.WithModel("gpt-4o-mini"), ai.WithMaxKeywords(8))
//
// ResolveConfig layers explicit values over environment variables
// (OPENAI_API_KEY, then LLM_API_KEY for the credential; LLM_BASE_URL, then
// OPENAI_BASE_URL; LLM_MODEL, then OPENAI_MODEL) over defaults.
package ai
