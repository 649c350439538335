package core

// commands maps every command name and alias to its implementation.
// Populated from init() in the command packages; read-only after
// startup.
var commands = map[string]Command{}

// RegisterCommand makes a command resolvable by its name and aliases.
func RegisterCommand(cmd Command) {
	commands[cmd.Name()] = cmd
	for _, alias := range cmd.Aliases() {
		commands[alias] = cmd
	}
}

// GetCommand resolves a command by name or alias.
func GetCommand(name string) (Command, bool) {
	cmd, ok := commands[name]
	return cmd, ok
}

// AllCommands returns every registered command once, regardless of how
// many aliases point at it.
func AllCommands() []Command {
	out := make([]Command, 0, len(commands))
	seen := make(map[string]struct{}, len(commands))
	for _, cmd := range commands {
		if _, dup := seen[cmd.Name()]; dup {
			continue
		}
		seen[cmd.Name()] = struct{}{}
		out = append(out, cmd)
	}
	return out
}
