/*
Package config holds the resolved options for a resub run and loads presets.

	            +-------------+
	            |   Options   |
	            |  (per run)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |   HCL   | |   JSON    |
	|  Parser   | | Parser  | |  Parser   |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Defines the immutable Options consumed by the substitution engine
- Loads preset files so a pattern/replacement pair can be reused
- Validates options before any file is touched

🔄 Flow:
1. A preset is read from --config or a .resub.* file in the working directory
2. The format specific parser decodes it into Options
3. Command line arguments and flags are layered on top by the CLI
4. Validate runs once, before resolution starts

🔍 Example preset (.resub.yaml):

	pattern: '\bfoo\b'
	replacement: bar
	files:
	  - "src/*.go"
	prefix: out/
	dry_run: true
	verbosity: 2
*/
package config
