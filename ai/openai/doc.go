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

// Package openai implements ai.Provider against OpenAI-compatible chat APIs.
//
// Requests go through langchaingo's openai client and a circuit breaker that
// opens after five consecutive failures; while it is open every call takes
// the deterministic fallback immediately. Successful verdicts and keyword
// lists are memoized for Config.CacheTTL.
//
// # Usage
//
//	config := ai.ResolveConfig(nil, os.Getenv)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	keywords := provider.KeywordExtractor().ExtractKeywords(ctx, "concert cancelled", 0)
//	verdict, _ := provider.Classifier().Judge(ctx, item, "concert cancelled", core.PlatformWeibo)
package openai
