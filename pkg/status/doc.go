/*
Package status reports what is waiting in a pipeline without running it.

	+-----------+     +-----------+     +-----------+
	|  root/    | --> | 0_label/  | --> | 1_label/  |
	| (queue 0) |     | (queue 1) |     | (results) |
	+-----------+     +-----------+     +-----------+

🎯 Purpose:
- Counts the files queued in front of every stage
- Counts the results left by the last stage
- Formats the counts for the terminal

Inspect lists every stage input concurrently and never touches a file.
The counts are a snapshot: a running execution may change them right after.

🔍 Example:

	p, _ := pipeline.Load(ctx, "/home/alice/pipeline")
	st, err := status.Inspect(ctx, p, nil)
	if err != nil {
		return err
	}
	fmt.Print(status.FormatPipeline(st))
*/
package status
