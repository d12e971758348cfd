// Package model defines provider-agnostic chat and embedding interfaces and
// the provider registry used to resolve caller-supplied model bindings.
// Providers (OpenAI, Anthropic) adapt their vendor SDKs behind these
// interfaces so agents stay decoupled from any one vendor.
package model
