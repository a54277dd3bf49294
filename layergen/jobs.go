/*
 * jobs.go, part of golayers.
 *
 * Copyright 2023 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * golayers is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

package layergen

import (
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed resources
var resources embed.FS

// JobParams are the per-job rendering parameters of the batch script.
type JobParams struct {
	Name   string
	Stdout string //default "%j.out"
	Stderr string //default "%j.err"
}

// jobContext is what the job script template is executed against.
type jobContext struct {
	Name          string
	Directives    string //scheduler directives built from the settings
	Nodes         int
	NTasksPerNode int
	ExportEnv     string
	Stdout        string
	Stderr        string
	VASP          string
}

// readTemplate reads a template file, falling back to the embedded resource
// with the same base name when the path does not exist on disk.
func readTemplate(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	}
	data, err := resources.ReadFile("resources/" + filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("template not found: %s", path)
	}
	return string(data), nil
}

// RenderJobScript renders the batch submission script from the configured
// template, filling in the job name and the scheduler settings. Partition,
// exclude and the extra lines become additional scheduler directives.
func RenderJobScript(set *Settings, p JobParams) (string, error) {
	text, err := readTemplate(set.Templates.JobScript)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(filepath.Base(set.Templates.JobScript)).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing job template: %w", err)
	}
	sched := set.Scheduler
	var directives []string
	if sched.Partition != "" {
		directives = append(directives, fmt.Sprintf("#SBATCH --partition=%s", sched.Partition))
	}
	if sched.Exclude != "" {
		directives = append(directives, fmt.Sprintf("#SBATCH --exclude=%s", sched.Exclude))
	}
	directives = append(directives, sched.ExtraLines...)
	if p.Stdout == "" {
		p.Stdout = "%j.out"
	}
	if p.Stderr == "" {
		p.Stderr = "%j.err"
	}
	var b strings.Builder
	err = tmpl.Execute(&b, jobContext{
		Name:          p.Name,
		Directives:    strings.Join(directives, "\n"),
		Nodes:         sched.Nodes,
		NTasksPerNode: sched.NTasksPerNode,
		ExportEnv:     sched.ExportEnv,
		Stdout:        p.Stdout,
		Stderr:        p.Stderr,
		VASP:          set.Tools.VASPStd,
	})
	if err != nil {
		return "", fmt.Errorf("rendering job template: %w", err)
	}
	return b.String(), nil
}

// WriteJobScript renders the job script and writes it, executable by owner
// and group, to the given destination.
func WriteJobScript(set *Settings, p JobParams, destination string) error {
	content, err := RenderJobScript(set, p)
	if err != nil {
		return err
	}
	return os.WriteFile(destination, []byte(content), 0750)
}

// Submit hands the script to the configured scheduler submit command. The
// command's stderr goes to the caller's stderr; a missing command or a
// nonzero exit is returned as an error.
func Submit(set *Settings, script string) error {
	cmd := exec.Command(set.Scheduler.SubmitCommand, script)
	cmd.Stderr = os.Stderr
	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("submitting %s with %s: %w", script, set.Scheduler.SubmitCommand, err)
	}
	return nil
}
