// Package jobscript renders batch scheduler scripts which run the
// simulation on a list of input files.
package jobscript

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/cp2k/fortools/fortools/suggest"
)

type Job struct {
	Name       string
	Executable string
	Nodes      int
	Tasks      int
	Walltime   string
	Account    string
	Queue      string
	Inputs     []string
}

// Run is one execution line of the script.
type Run struct {
	Input  string
	Output string
}

// Runs pairs every input with an output file of the same stem.
func (self Job) Runs() []Run {
	runs := make([]Run, len(self.Inputs))
	for idx, input := range self.Inputs {
		stem := strings.TrimSuffix(input, filepath.Ext(input))
		runs[idx] = Run{Input: input, Output: stem + ".out"}
	}
	return runs
}

func (self Job) Validate() error {
	if self.Name == "" {
		return fmt.Errorf("job name must not be empty")
	}
	if self.Executable == "" {
		return fmt.Errorf("executable must not be empty")
	}
	if self.Nodes < 1 || self.Tasks < 1 {
		return fmt.Errorf("nodes and tasks must be at least 1")
	}
	if len(self.Inputs) == 0 {
		return fmt.Errorf("no input files")
	}
	if strings.Count(self.Walltime, ":") != 2 {
		return fmt.Errorf("walltime %q is not HH:MM:SS", self.Walltime)
	}
	return nil
}

const slurmTemplate = `#!/bin/bash
#SBATCH --job-name={{ .Name }}
#SBATCH --nodes={{ .Nodes }}
#SBATCH --ntasks-per-node={{ .Tasks }}
#SBATCH --time={{ .Walltime }}
{{- if .Account }}
#SBATCH --account={{ .Account }}
{{- end }}
{{- if .Queue }}
#SBATCH --partition={{ .Queue }}
{{- end }}

set -e
{{ range .Runs }}
srun {{ $.Executable }} -i {{ quote .Input }} -o {{ quote .Output }}
{{- end }}
`

const pbsTemplate = `#!/bin/bash
#PBS -N {{ .Name }}
#PBS -l select={{ .Nodes }}:mpiprocs={{ .Tasks }}
#PBS -l walltime={{ .Walltime }}
{{- if .Account }}
#PBS -A {{ .Account }}
{{- end }}
{{- if .Queue }}
#PBS -q {{ .Queue }}
{{- end }}

set -e
cd "$PBS_O_WORKDIR"
{{ range .Runs }}
mpiexec {{ $.Executable }} -i {{ quote .Input }} -o {{ quote .Output }}
{{- end }}
`

var funcs = template.FuncMap{
	"quote": shellQuote,
}

var schedulers = map[string]*template.Template{
	"slurm": template.Must(template.New("slurm").Funcs(funcs).Parse(slurmTemplate)),
	"pbs":   template.Must(template.New("pbs").Funcs(funcs).Parse(pbsTemplate)),
}

// Schedulers lists the supported scheduler names.
func Schedulers() []string {
	names := make([]string, 0, len(schedulers))
	for name := range schedulers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render writes the script of job for the named scheduler.
func Render(w io.Writer, scheduler string, job Job) error {
	tmpl, ok := schedulers[strings.ToLower(scheduler)]
	if !ok {
		return suggest.UnknownError("scheduler", scheduler, Schedulers())
	}
	if err := job.Validate(); err != nil {
		return err
	}

	if err := tmpl.Execute(w, job); err != nil {
		return fmt.Errorf("rendering %s script: %w", scheduler, err)
	}
	return nil
}

func shellQuote(word string) string {
	if word != "" && strings.IndexFunc(word, func(r rune) bool {
		return !(r == '.' || r == '_' || r == '-' || r == '/' || r == '+' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return word
	}
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}
