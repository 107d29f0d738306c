// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog issue.
type Id int

const (
	ActivationScriptNotFoundId Id = iota + 1
	ActivationFailedId
	AnchorUnresolvedId
	WorkDirNotFoundId
	ModuleNotFoundId
	InterpreterNotFoundId
	InterpreterVersionId
	ShellNotFoundId
	ConfigLoadFailedId
	DownstreamFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Title returns the first markdown heading of the issue, without the leading '#'.
func (i *Issue) Title() string {
	for _, line := range strings.Split(string(i.mdMsg), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	return ""
}

// Render renders the issue markdown with glamour using the given style
// ("auto", "dark", "light", "notty", or a path to a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var extraMd strings.Builder
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			extraMd.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
		for _, link := range i.extLinks {
			extraMd.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
	}
	return render(string(i.mdMsg)+extraMd.String(), stylePath)
}

var (
	render = glamour.Render

	activationScriptNotFoundIssue = &Issue{
		id: ActivationScriptNotFoundId,
		mdMsg: `
# Virtual environment activation script not found!

No virtual environment is active and the launcher could not find the
activation script next to it.

## Things you can try:
- Create the virtual environment next to the launcher:
~~~
$ python3 -m venv venv
$ venv/bin/pip install -r requirements.txt
~~~
- Point the launcher at an existing environment in config.cue:
~~~cue
activation_script: "/path/to/venv/bin/activate"
~~~
- Activate an environment yourself before running the launcher; it will
  then skip activation.`,
		extLinks: []HttpLink{"https://docs.python.org/3/library/venv.html"},
	}

	activationFailedIssue = &Issue{
		id: ActivationFailedId,
		mdMsg: `
# Virtual environment activation failed!

The activation script exists but did not complete successfully.

## Things you can try:
- Run it by hand to see the error:
~~~
$ . venv/bin/activate
~~~
- Switch to the host shell backend if the script relies on shell features
  the embedded interpreter does not support:
~~~
$ clai --activation native
~~~
- Recreate the environment if it was moved or its interpreter was removed.`,
	}

	anchorUnresolvedIssue = &Issue{
		id: AnchorUnresolvedId,
		mdMsg: `
# Could not resolve the launcher location!

The launcher locates the virtual environment and the CLAI package relative
to its own executable (after resolving symlinks).

## Things you can try:
- Use the caller's directory as the anchor instead:
~~~
$ clai --anchor cwd
~~~
- Set an explicit anchor in config.cue:
~~~cue
anchor_dir: "/opt/clai/launcher"
~~~`,
	}

	workDirNotFoundIssue = &Issue{
		id: WorkDirNotFoundId,
		mdMsg: `
# Working directory not found!

The downstream module runs from a directory relative to the launcher
(the parent of the anchor by default), and that directory does not exist.

## Things you can try:
- Check the 'work_dir' setting in config.cue
- Verify the launcher was installed inside the CLAI checkout`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Downstream module not found!

The module to run (CLAI.start_shell by default) could not be located in the
working directory.

## Things you can try:
- Verify the checkout layout:
~~~
<work_dir>/CLAI/start_shell.py
~~~
- Override the module in config.cue:
~~~cue
module: "CLAI.start_shell"
~~~`,
	}

	interpreterNotFoundIssue = &Issue{
		id: InterpreterNotFoundId,
		mdMsg: `
# Python interpreter not found!

After activation, the configured interpreter was not found on PATH.

## Things you can try:
- Check that the virtual environment contains an interpreter:
~~~
$ ls venv/bin/python3
~~~
- Configure the interpreter name or an absolute path:
~~~cue
interpreter: "python3.12"
~~~`,
	}

	interpreterVersionIssue = &Issue{
		id: InterpreterVersionId,
		mdMsg: `
# Python interpreter is too old!

The interpreter inside the virtual environment does not satisfy the
configured version constraint.

## Things you can try:
- Recreate the environment with a newer Python:
~~~
$ python3.12 -m venv --clear venv
~~~
- Relax the constraint in config.cue:
~~~cue
min_interpreter_version: ">= 3.9"
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# No usable shell for native activation!

The native activation backend sources the activation script with the host
shell and reads the result back through 'env -0'. Either neither $SHELL,
bash nor sh is available, or the system 'env' does not support '-0'
(GNU coreutils, BusyBox and macOS 10.15+ do).

## Things you can try:
- Use the embedded interpreter instead:
~~~
$ clai --activation virtual
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Show where the launcher looks for its configuration:
~~~
$ clai config path
~~~
- Regenerate a default file:
~~~
$ clai config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	downstreamFailedIssue = &Issue{
		id: DownstreamFailedId,
		mdMsg: `
# The downstream module could not be started!

## Things you can try:
- Run the module by hand from the working directory:
~~~
$ python3 -m CLAI.start_shell "$PWD"
~~~
- Run 'clai doctor' to check the whole chain.`,
	}

	issues = map[Id]*Issue{
		activationScriptNotFoundIssue.Id(): activationScriptNotFoundIssue,
		activationFailedIssue.Id():         activationFailedIssue,
		anchorUnresolvedIssue.Id():         anchorUnresolvedIssue,
		workDirNotFoundIssue.Id():          workDirNotFoundIssue,
		moduleNotFoundIssue.Id():           moduleNotFoundIssue,
		interpreterNotFoundIssue.Id():      interpreterNotFoundIssue,
		interpreterVersionIssue.Id():       interpreterVersionIssue,
		shellNotFoundIssue.Id():            shellNotFoundIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		downstreamFailedIssue.Id():         downstreamFailedIssue,
	}
)

// Values returns all catalog issues ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
