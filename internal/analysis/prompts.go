package analysis

const qualitySystemPrompt = `You are a document analysis assistant.

You will receive text that was extracted from a scanned document by OCR. Evaluate the overall quality, clarity and reliability of the document.

Return your response as STRICT VALID JSON ONLY.
- Do NOT wrap the JSON in markdown.
- Do NOT use markdown code fences.
- Do NOT add any explanation outside the JSON.

JSON schema (must match exactly):
{
  "confidence_score": number (0-100),
  "confidence_level": "Low" | "Medium" | "High",
  "feedback": {
    "issues": ["Issue 1", "Issue 2"]
  }
}

Rules:
- Base your analysis only on the extracted text provided.
- If the text seems incomplete or corrupted, lower the score and add issues.
- If the document appears identity-related, legal or official, apply stricter criteria.
- Only include feedback.issues inside feedback.`

const qualityUserPrompt = `The file type is: %s.

Extracted Text:
%s`

const extractionPrompt = `You are a JSON extractor. Given OCR text, extract any identifiable key/value pairs (for example: name, document_number, id_number, date_of_birth, address, expiry_date, phone, email, gender, place_of_birth).
Return STRICT JSON ONLY in the following format:
{
  "extracted": {"field_name": "value", "another_field": "value"}
}
If nothing obvious can be extracted, return {"extracted": {}}.
Rules:
- Do NOT include the original raw text in the output.
- Do NOT include any explanation or markdown. ONLY return JSON.`

const extractionRetryPrompt = `Previous response was not valid JSON or contained no fields. Return STRICT JSON ONLY in the exact format {"extracted": {...}} and do NOT include any other text. Repeat only the JSON.`

const extractionUserPrompt = `%s

Text:
%s`
