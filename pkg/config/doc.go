/*
Package config loads the settings that control how dirpipe runs stage commands.

	            +-------------+
	            |  Settings   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   JSON   | |   YAML   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Reads settings from a file picked with --config
- Rejects unknown fields in every format
- Parses durations and checks ignore globs up front

🔄 Flow:
1. LoadSettings reads the file
2. GetParser picks a parser by extension
3. Settings.Validate fills defaults and parses derived values
4. The CLI applies flag overrides and validates again

⚡ Settings:
- workdir: working directory of stage commands
- executable: program placed before every command template
- timeout / grace_period: per-process limits
- fail_fast: stop a stage at its first failed file
- ignore: doublestar globs never queued as work
- log_level: debug, info, warn or error

Settings are not part of a pipeline. The pipeline marker file only holds
stages; see package pipeline.

🔍 Example:

	s, err := config.LoadSettings(ctx, "dirpipe.yaml")
	if err != nil {
		return err
	}
	runner := process.NewExecRunner(process.Options{
		Timeout:     s.ProcessTimeout(),
		GracePeriod: s.KillGracePeriod(),
	})
*/
package config
