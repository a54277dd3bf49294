/*
 * jobs_test.go, part of golayers.
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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderJobScriptEmbeddedTemplate(Te *testing.T) {
	set := DefaultSettings()
	set.Tools.VASPStd = "vasp_std"
	set.Scheduler.Partition = "long"
	set.Scheduler.Exclude = "node[01-02]"
	set.Scheduler.ExtraLines = []string{"#SBATCH --mem=64G"}
	//the default template paths don't exist on disk, so the embedded
	//resources are used
	script, err := RenderJobScript(set, JobParams{Name: "Fe_BCC_3"})
	if err != nil {
		Te.Fatal(err)
	}
	for _, want := range []string{
		"#SBATCH --job-name=Fe_BCC_3",
		"#SBATCH --ntasks-per-node=48",
		"#SBATCH --partition=long",
		"#SBATCH --exclude=node[01-02]",
		"#SBATCH --mem=64G",
		"#SBATCH --output=%j.out",
		"srun vasp_std",
	} {
		if !strings.Contains(script, want) {
			Te.Errorf("rendered script lacks %q:\n%s", want, script)
		}
	}
}

func TestRenderJobScriptCustomTemplate(Te *testing.T) {
	dir := Te.TempDir()
	custom := filepath.Join(dir, "job_template.sh")
	if err := os.WriteFile(custom, []byte("run {{.Name}} on {{.Nodes}} nodes\n"), 0644); err != nil {
		Te.Fatal(err)
	}
	set := DefaultSettings()
	set.Templates.JobScript = custom
	set.Scheduler.Nodes = 4
	script, err := RenderJobScript(set, JobParams{Name: "test"})
	if err != nil {
		Te.Fatal(err)
	}
	if script != "run test on 4 nodes\n" {
		Te.Errorf("rendered custom template: got %q", script)
	}
}

func TestWriteJobScriptMode(Te *testing.T) {
	set := DefaultSettings()
	set.Tools.VASPStd = "vasp_std"
	dest := filepath.Join(Te.TempDir(), "job.pbs")
	if err := WriteJobScript(set, JobParams{Name: "x"}, dest); err != nil {
		Te.Fatal(err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		Te.Fatal(err)
	}
	if info.Mode().Perm() != 0750 {
		Te.Errorf("job script mode: got %o, want 750", info.Mode().Perm())
	}
}

func TestSubmitMissingCommand(Te *testing.T) {
	set := DefaultSettings()
	set.Scheduler.SubmitCommand = "definitely-not-a-scheduler"
	if err := Submit(set, "job.pbs"); err == nil {
		Te.Error("expected an error for a missing submit command")
	}
}
