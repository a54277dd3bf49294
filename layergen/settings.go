/*
 * settings.go, part of golayers.
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

/*Package layergen generates layered slab structures and the VASP input
decks (POTCAR, INCAR, POSCAR, batch job script) to relax them and compute
their electron localization function, one directory tree per layer count.
The analysis of the resulting files belongs to the parent layers package.*/
package layergen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigEnvVar names the environment variable that can point to the
// configuration file when no explicit path is given.
const ConfigEnvVar = "GOLAYERS_CONFIG"

// defaultConfigNames are tried, in order, in the working directory when
// neither an explicit path nor the environment variable is set.
var defaultConfigNames = []string{"golayers.config.json", "config.json"}

// ToolPaths locates the external tools and resources the generator needs.
type ToolPaths struct {
	POTCARRoot string `json:"potcar_root"`         //directory holding the per-element POTCAR subdirectories
	VASPStd    string `json:"vasp_std_executable"` //command the job script runs
}

// SchedulerConfig describes the batch scheduler the jobs are submitted to.
type SchedulerConfig struct {
	SubmitCommand string   `json:"submit_command"`
	Partition     string   `json:"partition"`
	Exclude       string   `json:"exclude"`
	Nodes         int      `json:"nodes"`
	NTasksPerNode int      `json:"ntasks_per_node"`
	ExportEnv     string   `json:"export_env"`
	ExtraLines    []string `json:"extra_lines"` //extra scheduler directives, written verbatim
}

// TemplateConfig holds the template file locations, relative to the
// configuration file unless absolute. A path that does not exist on disk
// falls back to the resource of the same base name embedded in the package.
type TemplateConfig struct {
	JobScript  string `json:"job_script"`
	RelaxINCAR string `json:"relax_incar"`
	SCFINCAR   string `json:"scf_incar"`
}

// Settings gathers every runtime setting of the generation workflow.
type Settings struct {
	APIKey    string          `json:"materials_project_api_key"` //empty means take it from the MP_API_KEY environment variable
	Tools     ToolPaths       `json:"tools"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Templates TemplateConfig  `json:"templates"`
}

// DefaultSettings returns a Settings with the scheduler and template
// defaults filled in. Tool paths and the API key have no defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Scheduler: SchedulerConfig{
			SubmitCommand: "sbatch",
			Nodes:         1,
			NTasksPerNode: 48,
			ExportEnv:     "ALL",
		},
		Templates: TemplateConfig{
			JobScript:  "resources/job_template.sh",
			RelaxINCAR: "resources/incar_relax.in",
			SCFINCAR:   "resources/incar_scf.in",
		},
	}
}

// LoadSettings reads the JSON settings file. If path is empty, the file
// named by the GOLAYERS_CONFIG environment variable is used, then
// golayers.config.json and config.json in the working directory. Relative
// template paths are resolved against the directory of the file they came
// from, and a missing API key is taken from MP_API_KEY.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	if path == "" {
		for _, name := range defaultConfigNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path == "" {
		return nil, fmt.Errorf("no configuration file found: set %s or create %s", ConfigEnvVar, defaultConfigNames[0])
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	set := DefaultSettings()
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	if set.APIKey == "" {
		set.APIKey = os.Getenv("MP_API_KEY")
	}
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	set.Templates.JobScript = resolveTemplate(set.Templates.JobScript, root)
	set.Templates.RelaxINCAR = resolveTemplate(set.Templates.RelaxINCAR, root)
	set.Templates.SCFINCAR = resolveTemplate(set.Templates.SCFINCAR, root)
	return set, nil
}

func resolveTemplate(path, root string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
