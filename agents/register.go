package agents

import (
	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/showrunner-ai/showrunner/platform"
)

// RegisterAll registers the built-in media agents on the registry. The set
// is closed and enumerated here; new capabilities are added by extending this
// list, not discovered at runtime.
func RegisterAll(reg *agent.Registry, client platform.Client, model llm.Client) error {
	builtins := []agent.Agent{
		NewUploadAgent(client),
		NewSearchAgent(client),
		NewStreamAgent(client),
		NewSummarizeAgent(client, model),
	}
	for _, a := range builtins {
		if err := reg.Register(a); err != nil {
			return err
		}
	}
	return nil
}
