package runner

// Argument lists of the sgt subcommands the dashboard invokes. They are the
// contract with the sgt binary and must not change shape.

// StatusArgs returns the arguments of `sgt status`.
func StatusArgs() []string {
	return []string{"status"}
}

// RigListArgs returns the arguments of `sgt rig list`.
func RigListArgs() []string {
	return []string{"rig", "list"}
}

// PeekArgs returns the arguments of `sgt peek <target>`.
func PeekArgs(target string) []string {
	return []string{"peek", target}
}

// SlingArgs returns the arguments of
// `sgt sling <rig> <task> [--convoy C] [--label L]...`.
func SlingArgs(rig, task, convoy string, labels []string) []string {
	args := []string{"sling", rig, task}
	if convoy != "" {
		args = append(args, "--convoy", convoy)
	}
	for _, l := range labels {
		args = append(args, "--label", l)
	}
	return args
}

// DogArgs returns the arguments of `sgt dog <rig> <issue>`.
func DogArgs(rig, issue string) []string {
	return []string{"dog", rig, issue}
}
