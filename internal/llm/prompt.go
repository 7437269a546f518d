package llm

// ExtractionPrompt is the fixed instruction sent with every image. The model
// must return exactly one JSON object in this shape and nothing else; fenced
// wrappers are tolerated and stripped before parsing.
const ExtractionPrompt = `帮我识别图片上的病例信息，患者姓名，患者性别， 医院名称， 报告日期时间(YYYY-MM-DD HH:mm:ss)以及报告详情。

返回json格式：
interface Info {
  user: {
    name:string
    sex: string
  },
  case: {
    hospital: string
    report_date: string
  },
  reports: {
    chinese_name: string
    english_name: string
    value: string
    unit: string
    range: string
    notifaction: string
  }[]
}

return Info
仅返回 json 数据，不要有任何其他解释性文字。`
