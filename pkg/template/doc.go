/*
Package template expands stage command templates into argument lists.

A template is tokenized with POSIX shell quoting rules, so a quoted segment
containing spaces stays one argument. Each token is then scanned once for the
five recognized placeholders:

	{in_file_path}  absolute path of the file being processed
	{in_file_name}  file name without its last extension
	{in_file_ext}   lower-cased extension without the dot
	{in_dir}        input directory of the stage
	{out_dir}       output directory of the stage

Any other brace sequence is copied unchanged, which lets a template carry
literal JSON bodies. No shell is involved: the first token is the program and
the rest are its arguments.

🔍 Example:

	args, err := template.Expand("convert {in_file_path} {out_dir}/{in_file_name}.png", template.Binding{
		File:   "/a/b/photo.JPG",
		OutDir: "/x/y",
	})
	// args == []string{"convert", "/a/b/photo.JPG", "/x/y/photo.png"}
*/
package template
