package chatpipline

// Prompt templates for the pipeline's generation calls. The conversation
// log is always treated as context, never as instructions to execute.

const inquiryTemplate = `Given the following user prompt and conversation log, formulate a question that would be the most effective way to find the information the user is looking for.

You should follow the following rules when generating an answer:
- Always prioritize the user prompt over the conversation log.
- Ignore any conversation log that is not directly related to the user prompt.
- Only attempt to answer if a question was posed.
- The question should be a single sentence.
- You should remove any punctuation from the question.
- You should remove any words that are not relevant to the question.
- If you are unable to formulate a question, respond with the same USER PROMPT you got.

USER PROMPT: %s

CONVERSATION LOG: %s

Final answer:`

const qaTemplate = `Answer the question based on the context below. You should follow the following rules when generating an answer:
- There will be a CONVERSATION LOG, CONTEXT, and a QUESTION.
- The final answer must always be styled using markdown.
- Your main goal is to point the user to the right source of information based on the CONTEXT you are given.
- Your secondary goal is to provide the user with an answer that is relevant to the question.
- Take into account the entire conversation so far, marked as CONVERSATION LOG, but prioritize the CONTEXT.
- Do not make up any answers if the CONTEXT does not have relevant information.
- Do not mention the CONTEXT in the answer, but use it to generate the answer.
- The URLS are the source pages of the CONTEXT; point the user to them where helpful.
- Use as much detail as possible when responding.

CONVERSATION LOG: %s

CONTEXT: %s

QUESTION: %s

URLS: %s

Final Answer:`
