package app

import (
	"github.com/halcyonlabs/emcon/internal/emulation"
	"github.com/halcyonlabs/emcon/internal/monitor"
	"github.com/halcyonlabs/emcon/internal/shell"
)

// wireLifecycle connects quit and context signals once the shell and
// (optionally) the terminal exist.
//
// Quit from any of terminal, shell or monitor funnels into one
// idempotent exit request: the terminal and shell request exit
// directly, while the monitor stops the shell, whose own Quitted then
// requests exit. Handlers run on whatever goroutine emits the signal.
func wireLifecycle(sh *shell.Shell, term *shell.Terminal, mon *monitor.Monitor, exit *ExitCoordinator) {
	if term != nil {
		term.Quitted.Connect(func(struct{}) { exit.Request() })
	}
	sh.Quitted.Connect(func(struct{}) { exit.Request() })
	mon.Quitted.Connect(func(struct{}) { sh.Stop() })
	mon.ContextChanged.Connect(func(machine *emulation.Machine) {
		if machine == nil {
			sh.SetPrompt(nil)
			return
		}
		sh.SetPrompt(shell.NewPrompt("("+machine.Name()+") ", shell.ContextPromptColor))
	})
}
