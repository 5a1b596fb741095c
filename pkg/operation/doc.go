/*
Package operation drives a pipeline from the command line.

	+-------------+     +--------------+     +-----------+
	|  Operation  | --> | Orchestrator | --> |  Stage N  |
	| create/exec |     |  (in order)  |     | Executor  |
	+-------------+     +--------------+     +-----------+

🎯 Purpose:
- Creates pipelines, interactively or from a list of stages
- Executes a saved pipeline stage after stage
- Halts at the first failed stage

🔄 Flow:
1. The pipeline is loaded fresh from its marker file
2. Each stage runs through a StageRunner, usually a *stage.Executor
3. Per-stage progress is scaled into one pipeline-wide percentage
4. The first failed stage is reported as a *PipelineExecutionError

⚡ Failure semantics:
- A failed stage keeps its input and loses its output
- Later stages are never started
- Earlier stages are not rolled back; their inputs stay drained

🚧 Known limitation:
Two executions against the same pipeline root race on the directory
listings. Nothing locks the root.

🔍 Example:

	exec, _ := stage.NewExecutor(process.NewExecRunner(process.Options{}), stage.Options{})
	orch, _ := operation.NewOrchestrator(exec)
	report, err := orch.ExecuteFolder(ctx, "/home/alice/pipeline", nil)
	var perr *operation.PipelineExecutionError
	if errors.As(err, &perr) {
		fmt.Printf("stage %s failed\n", perr.Stage.Label())
	}
*/
package operation
